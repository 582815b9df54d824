package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	pkgerrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

// mockStore 内存数据集，各 mock Repository 共享以便解析关联
type mockStore struct {
	seq         int
	users       map[string]*model.User
	departments map[string]*model.Department
	employees   map[string]*model.Employee
	reasons     map[string]*model.AbsenceReason
	attendances map[string]*model.Attendance // key: employeeID|date
	leaves      map[string]*model.Leave
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*model.User),
		departments: make(map[string]*model.Department),
		employees:   make(map[string]*model.Employee),
		reasons:     make(map[string]*model.AbsenceReason),
		attendances: make(map[string]*model.Attendance),
		leaves:      make(map[string]*model.Leave),
	}
}

func (m *mockStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// newMockRepository 以共享数据集构建 Repository 聚合
func newMockRepository(store *mockStore) *repository.Repository {
	return &repository.Repository{
		User:          &mockUserRepo{s: store},
		Department:    &mockDeptRepo{s: store},
		Employee:      &mockEmployeeRepo{s: store},
		AbsenceReason: &mockReasonRepo{s: store},
		Attendance:    &mockAttendanceRepo{s: store},
		Leave:         &mockLeaveRepo{s: store},
	}
}

func inIDs(restrict bool, ids []string, id string) bool {
	if !restrict {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) withDept(u *model.User) *model.User {
	cp := *u
	if u.DepartmentID != nil {
		cp.Department = m.s.departments[*u.DepartmentID]
	}
	return &cp
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = m.s.nextID("user")
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		return m.withDept(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			return m.withDept(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	cp.Department = nil
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if u, ok := m.s.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.s.users {
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		if filters.DepartmentID != "" && u.DepartmentIDValue() != filters.DepartmentID {
			continue
		}
		all = append(all, *m.withDept(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	for _, d := range m.s.departments {
		if d.ManagerID != nil && *d.ManagerID == id {
			d.ManagerID = nil
		}
	}
	delete(m.s.users, id)
	return nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct{ s *mockStore }

func (m *mockDeptRepo) withManager(d *model.Department) *model.Department {
	cp := *d
	if d.ManagerID != nil {
		cp.Manager = m.s.users[*d.ManagerID]
	}
	return &cp
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	for _, d := range m.s.departments {
		if d.Name == dept.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if dept.DepartmentID == "" {
		dept.DepartmentID = m.s.nextID("dept")
	}
	cp := *dept
	m.s.departments[dept.DepartmentID] = &cp
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.s.departments[id]; ok {
		return m.withManager(d), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.s.departments {
		if d.Name == name {
			return m.withManager(d), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByManager(_ context.Context, managerID string) (*model.Department, error) {
	for _, d := range m.s.departments {
		if d.ManagerID != nil && *d.ManagerID == managerID {
			return m.withManager(d), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.s.departments {
		result = append(result, *m.withManager(d))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	if d, ok := m.s.departments[dept.DepartmentID]; ok {
		d.Name = dept.Name
	}
	return nil
}

func (m *mockDeptRepo) AssignManager(_ context.Context, departmentID, managerID, _ string) error {
	for id, d := range m.s.departments {
		if id != departmentID && d.ManagerID != nil && *d.ManagerID == managerID {
			return gorm.ErrDuplicatedKey
		}
	}
	dept := m.s.departments[departmentID]
	if dept.ManagerID != nil && *dept.ManagerID != managerID {
		if prev, ok := m.s.users[*dept.ManagerID]; ok && prev.DepartmentIDValue() == departmentID {
			prev.DepartmentID = nil
		}
	}
	mid := managerID
	dept.ManagerID = &mid
	if u, ok := m.s.users[managerID]; ok {
		did := departmentID
		u.DepartmentID = &did
	}
	return nil
}

func (m *mockDeptRepo) ClearManager(_ context.Context, managerID, _ string) error {
	for _, d := range m.s.departments {
		if d.ManagerID != nil && *d.ManagerID == managerID {
			d.ManagerID = nil
		}
	}
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string) error {
	delete(m.s.departments, id)
	return nil
}

func (m *mockDeptRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.s.departments)), nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *mockStore }

func (m *mockEmployeeRepo) withDept(e *model.Employee) *model.Employee {
	cp := *e
	cp.Department = m.s.departments[e.DepartmentID]
	return &cp
}

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	if emp.EmployeeID == "" {
		emp.EmployeeID = m.s.nextID("emp")
	}
	if emp.Version == 0 {
		emp.Version = 1
	}
	cp := *emp
	m.s.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.s.employees[id]; ok {
		return m.withDept(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, filters repository.EmployeeListFilters) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.s.employees {
		if filters.DepartmentID != "" && e.DepartmentID != filters.DepartmentID {
			continue
		}
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		result = append(result, *m.withDept(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	current, ok := m.s.employees[emp.EmployeeID]
	if !ok || current.Version != emp.Version {
		return pkgerrors.ErrOptimisticLock
	}
	emp.Version++
	cp := *emp
	cp.Department = nil
	m.s.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) Delete(_ context.Context, id string) error {
	delete(m.s.employees, id)
	return nil
}

func (m *mockEmployeeRepo) ListIDsByDepartment(_ context.Context, departmentID string) ([]string, error) {
	ids := []string{}
	for _, e := range m.s.employees {
		if e.DepartmentID == departmentID {
			ids = append(ids, e.EmployeeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockEmployeeRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, e := range m.s.employees {
		if e.Status == model.EmployeeStatusActive {
			n++
		}
	}
	return n, nil
}

func (m *mockEmployeeRepo) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	ids, _ := m.ListIDsByDepartment(ctx, departmentID)
	return int64(len(ids)), nil
}

func (m *mockEmployeeRepo) BatchCountByDepartment(_ context.Context, departmentIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, e := range m.s.employees {
		counts[e.DepartmentID]++
	}
	return counts, nil
}

// ── Mock AbsenceReasonRepository ──

type mockReasonRepo struct{ s *mockStore }

func (m *mockReasonRepo) Create(_ context.Context, reason *model.AbsenceReason) error {
	for _, r := range m.s.reasons {
		if r.Name == reason.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if reason.ReasonID == "" {
		reason.ReasonID = m.s.nextID("reason")
	}
	cp := *reason
	m.s.reasons[reason.ReasonID] = &cp
	return nil
}

func (m *mockReasonRepo) GetByID(_ context.Context, id string) (*model.AbsenceReason, error) {
	if r, ok := m.s.reasons[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReasonRepo) GetByName(_ context.Context, name string) (*model.AbsenceReason, error) {
	for _, r := range m.s.reasons {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReasonRepo) List(_ context.Context, departmentID string) ([]model.AbsenceReason, error) {
	var result []model.AbsenceReason
	for _, r := range m.s.reasons {
		if departmentID != "" && (r.DepartmentID == nil || *r.DepartmentID != departmentID) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockReasonRepo) Update(_ context.Context, reason *model.AbsenceReason) error {
	cp := *reason
	m.s.reasons[reason.ReasonID] = &cp
	return nil
}

func (m *mockReasonRepo) Delete(_ context.Context, id string) error {
	delete(m.s.reasons, id)
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	s       *mockStore
	upserts int
}

func attendanceKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(model.DateLayout)
}

func (m *mockAttendanceRepo) resolve(a *model.Attendance) *model.Attendance {
	cp := *a
	cp.Employee = m.s.employees[a.EmployeeID]
	cp.Recorder = m.s.users[a.RecordedBy]
	return &cp
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, att *model.Attendance) (*model.Attendance, error) {
	m.upserts++
	key := attendanceKey(att.EmployeeID, att.Date)
	cp := *att
	if existing, ok := m.s.attendances[key]; ok {
		cp.AttendanceID = existing.AttendanceID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.AttendanceID = m.s.nextID("att")
		cp.CreatedAt = time.Now()
	}
	m.s.attendances[key] = &cp
	return m.resolve(&cp), nil
}

func (m *mockAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*model.Attendance, error) {
	if a, ok := m.s.attendances[attendanceKey(employeeID, date)]; ok {
		return m.resolve(a), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) match(a *model.Attendance, f repository.AttendanceFilters) bool {
	if !inIDs(f.RestrictEmployees, f.EmployeeIDs, a.EmployeeID) {
		return false
	}
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	if f.From != nil && a.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && a.Date.After(*f.To) {
		return false
	}
	if f.AbsentOnly && !a.HasAbsence() {
		return false
	}
	if f.LateOnly && !a.IsLate() {
		return false
	}
	return true
}

func (m *mockAttendanceRepo) List(_ context.Context, filters repository.AttendanceFilters) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, a := range m.s.attendances {
		if m.match(a, filters) {
			result = append(result, *m.resolve(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockAttendanceRepo) Count(_ context.Context, filters repository.AttendanceFilters) (int64, error) {
	var n int64
	for _, a := range m.s.attendances {
		if m.match(a, filters) {
			n++
		}
	}
	return n, nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct{ s *mockStore }

func (m *mockLeaveRepo) resolve(l *model.Leave) *model.Leave {
	cp := *l
	cp.Employee = m.s.employees[l.EmployeeID]
	cp.Reason = m.s.reasons[l.ReasonID]
	cp.Requester = m.s.users[l.RequestedBy]
	if l.ApprovedBy != nil {
		cp.Approver = m.s.users[*l.ApprovedBy]
	}
	return &cp
}

func (m *mockLeaveRepo) Create(_ context.Context, leave *model.Leave) error {
	if leave.LeaveID == "" {
		leave.LeaveID = m.s.nextID("leave")
	}
	cp := *leave
	m.s.leaves[leave.LeaveID] = &cp
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.Leave, error) {
	if l, ok := m.s.leaves[id]; ok {
		return m.resolve(l), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) match(l *model.Leave, f repository.LeaveFilters) bool {
	if !inIDs(f.RestrictEmployees, f.EmployeeIDs, l.EmployeeID) {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.EmployeeID != "" && l.EmployeeID != f.EmployeeID {
		return false
	}
	if f.From != nil && l.EndDate.Before(*f.From) {
		return false
	}
	if f.To != nil && l.StartDate.After(*f.To) {
		return false
	}
	return true
}

func (m *mockLeaveRepo) List(_ context.Context, filters repository.LeaveFilters) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.s.leaves {
		if m.match(l, filters) {
			result = append(result, *m.resolve(l))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LeaveID < result[j].LeaveID })
	return result, nil
}

func (m *mockLeaveRepo) Count(_ context.Context, filters repository.LeaveFilters) (int64, error) {
	var n int64
	for _, l := range m.s.leaves {
		if m.match(l, filters) {
			n++
		}
	}
	return n, nil
}

func (m *mockLeaveRepo) CountByReason(_ context.Context, reasonID string) (int64, error) {
	var n int64
	for _, l := range m.s.leaves {
		if l.ReasonID == reasonID {
			n++
		}
	}
	return n, nil
}

func (m *mockLeaveRepo) pending(leaveID, requestedBy string) (*model.Leave, bool) {
	l, ok := m.s.leaves[leaveID]
	if !ok || l.Status != model.LeaveStatusPending {
		return nil, false
	}
	if requestedBy != "" && l.RequestedBy != requestedBy {
		return nil, false
	}
	return l, true
}

func (m *mockLeaveRepo) UpdatePending(_ context.Context, leaveID, requestedBy string, changes repository.LeaveChanges) error {
	l, ok := m.pending(leaveID, requestedBy)
	if !ok {
		return repository.ErrConditionNotMet
	}
	l.ReasonID = changes.ReasonID
	l.StartDate = changes.StartDate
	l.EndDate = changes.EndDate
	l.Comments = changes.Comments
	return nil
}

func (m *mockLeaveRepo) DeletePending(_ context.Context, leaveID, requestedBy string) error {
	if _, ok := m.pending(leaveID, requestedBy); !ok {
		return repository.ErrConditionNotMet
	}
	delete(m.s.leaves, leaveID)
	return nil
}

func (m *mockLeaveRepo) Decide(_ context.Context, leaveID string, decision repository.LeaveDecision) error {
	l, ok := m.pending(leaveID, "")
	if !ok {
		return repository.ErrConditionNotMet
	}
	l.Status = decision.Status
	approver := decision.ApprovedBy
	l.ApprovedBy = &approver
	decided := decision.DecidedAt
	l.DecidedAt = &decided
	if decision.Comments != nil {
		l.Comments = *decision.Comments
	}
	return nil
}
