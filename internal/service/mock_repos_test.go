package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// ── Mock SequenceRepository ──

type mockSequenceRepo struct {
	counters map[string]int
}

func newMockSequenceRepo() *mockSequenceRepo {
	return &mockSequenceRepo{counters: make(map[string]int)}
}

func (m *mockSequenceRepo) next(scope string) int {
	n := m.counters[scope]
	m.counters[scope] = n + 1
	return n
}

func (m *mockSequenceRepo) NextCnoSeq(_ context.Context, attr, dept, window string) (int, error) {
	return m.next("cno:" + attr + ":" + dept + ":" + window), nil
}

func (m *mockSequenceRepo) NextOfferingSeq(_ context.Context, courseNo, semesterCode string) (int, error) {
	return m.next("offering:" + courseNo + ":" + semesterCode), nil
}

func (m *mockSequenceRepo) NextExamSeq(_ context.Context, semesterCode string) (int, error) {
	return m.next("exam:" + semesterCode), nil
}

func (m *mockSequenceRepo) NextArrangeSeq(_ context.Context, examNo string) (int, error) {
	return m.next("arrange:" + examNo), nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
	flags     map[string]*model.FlagSet
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{
		semesters: make(map[string]*model.Semester),
		flags:     make(map[string]*model.FlagSet),
	}
}

func (m *mockSemesterRepo) GetByCode(_ context.Context, code string) (*model.Semester, error) {
	if s, ok := m.semesters[code]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsCurrent {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrentForUpdate(ctx context.Context) (*model.Semester, error) {
	return m.GetCurrent(ctx)
}

func (m *mockSemesterRepo) GetFlags(_ context.Context, semesterCode string) (model.FlagSet, error) {
	if f, ok := m.flags[semesterCode]; ok {
		return *f, nil
	}
	return model.FlagSet{}, nil
}

func (m *mockSemesterRepo) GetFlagsForUpdate(ctx context.Context, semesterCode string) (model.FlagSet, error) {
	return m.GetFlags(ctx, semesterCode)
}

func (m *mockSemesterRepo) UpsertFlag(_ context.Context, semesterCode string, name model.FlagName, open bool) error {
	f, ok := m.flags[semesterCode]
	if !ok {
		f = &model.FlagSet{}
		m.flags[semesterCode] = f
	}
	switch name {
	case model.FlagCatalog:
		f.CatalogOpen = open
	case model.FlagOffering:
		f.OfferingOpen = open
	case model.FlagEnroll:
		f.EnrollOpen = open
	}
	return nil
}

// ── Mock AccountRepository ──

type mockAccountRepo struct {
	accounts map[string]*model.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*model.Account)}
}

func (m *mockAccountRepo) GetByNo(_ context.Context, userNo string) (*model.Account, error) {
	if a, ok := m.accounts[userNo]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountRepo) ListProfessorsByDepartment(_ context.Context, departmentCode string) ([]model.Account, error) {
	var result []model.Account
	for _, a := range m.accounts {
		if a.Role == model.RoleProfessor && a.DepartmentCode == departmentCode {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserNo < result[j].UserNo })
	return result, nil
}

func (m *mockAccountRepo) ListOnlineIdleBefore(_ context.Context, cutoff time.Time) ([]model.Account, error) {
	var result []model.Account
	for _, a := range m.accounts {
		if a.Online && (a.LastActiveAt == nil || a.LastActiveAt.Before(cutoff)) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAccountRepo) MarkOffline(_ context.Context, userNos []string) error {
	for _, no := range userNos {
		if a, ok := m.accounts[no]; ok {
			a.Online = false
		}
	}
	return nil
}

func (m *mockAccountRepo) MarkAllOffline(_ context.Context) (int64, error) {
	var count int64
	for _, a := range m.accounts {
		if a.Online {
			a.Online = false
			count++
		}
	}
	return count, nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	rooms map[string]*model.Classroom
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{rooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) GetByNo(_ context.Context, roomNo string) (*model.Classroom, error) {
	if r, ok := m.rooms[roomNo]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) GetByNoForUpdate(ctx context.Context, roomNo string) (*model.Classroom, error) {
	return m.GetByNo(ctx, roomNo)
}

// ── Mock CatalogRepository ──

type mockCatalogRepo struct {
	pool        map[string]*model.CnoPoolEntry
	proposals   map[string]*model.CatalogProposal
	curriculars map[string]*model.Curricular
	staged      []model.StagedPrerequisite
	prereqs     []model.Prerequisite
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		pool:        make(map[string]*model.CnoPoolEntry),
		proposals:   make(map[string]*model.CatalogProposal),
		curriculars: make(map[string]*model.Curricular),
	}
}

func (m *mockCatalogRepo) FindAvailablePoolEntryForUpdate(_ context.Context, attr model.AttributeClass, departmentCode, semesterWindow string) (*model.CnoPoolEntry, error) {
	var best *model.CnoPoolEntry
	for _, e := range m.pool {
		if e.AttributeClass == attr && e.DepartmentCode == departmentCode &&
			e.SemesterWindow == semesterWindow && e.Status == model.PoolAvailable {
			if best == nil || e.SeqNo < best.SeqNo {
				best = e
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (m *mockCatalogRepo) CreatePoolEntry(_ context.Context, entry *model.CnoPoolEntry) error {
	m.pool[entry.CourseNo] = entry
	return nil
}

func (m *mockCatalogRepo) GetPoolEntryForUpdate(_ context.Context, courseNo string) (*model.CnoPoolEntry, error) {
	if e, ok := m.pool[courseNo]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) UpdatePoolStatus(_ context.Context, courseNo string, status model.PoolStatus) error {
	if e, ok := m.pool[courseNo]; ok {
		e.Status = status
	}
	return nil
}

func (m *mockCatalogRepo) CreateProposal(_ context.Context, p *model.CatalogProposal) error {
	m.proposals[p.ID] = p
	return nil
}

func (m *mockCatalogRepo) GetProposal(_ context.Context, id string) (*model.CatalogProposal, error) {
	if p, ok := m.proposals[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) GetProposalForUpdate(ctx context.Context, id string) (*model.CatalogProposal, error) {
	return m.GetProposal(ctx, id)
}

func (m *mockCatalogRepo) UpdateProposalStatus(_ context.Context, id string, status model.CatalogProposalStatus) error {
	if p, ok := m.proposals[id]; ok {
		p.Status = status
	}
	return nil
}

func (m *mockCatalogRepo) ListProposalsByStatusForUpdate(_ context.Context, status model.CatalogProposalStatus) ([]model.CatalogProposal, error) {
	var result []model.CatalogProposal
	for _, p := range m.proposals {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockCatalogRepo) LatestProposalByCourseForUpdate(_ context.Context, courseNo string) (*model.CatalogProposal, error) {
	var latest *model.CatalogProposal
	for _, p := range m.proposals {
		if p.CourseNo != courseNo {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockCatalogRepo) UpsertCurricular(_ context.Context, c *model.Curricular) error {
	m.curriculars[c.CourseNo] = c
	return nil
}

func (m *mockCatalogRepo) GetCurricular(_ context.Context, courseNo string) (*model.Curricular, error) {
	if c, ok := m.curriculars[courseNo]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) StagePrerequisites(_ context.Context, edges []model.StagedPrerequisite) error {
	m.staged = append(m.staged, edges...)
	return nil
}

func (m *mockCatalogRepo) DeleteStagedByProposal(_ context.Context, proposalID string) error {
	var kept []model.StagedPrerequisite
	for _, e := range m.staged {
		if e.ProposalID != proposalID {
			kept = append(kept, e)
		}
	}
	m.staged = kept
	return nil
}

func (m *mockCatalogRepo) PromoteStagedByProposal(ctx context.Context, proposalID string) error {
	for _, e := range m.staged {
		if e.ProposalID == proposalID {
			m.prereqs = append(m.prereqs, model.Prerequisite{
				CourseNo:       e.CourseNo,
				PrereqCourseNo: e.PrereqCourseNo,
			})
		}
	}
	return m.DeleteStagedByProposal(ctx, proposalID)
}

// ── Mock OfferingRepository ──

type mockOfferingRepo struct {
	proposals  map[string]*model.OfferingProposal
	professors map[string][]model.OfferingProfessor
	courses    map[string]*model.CourseOffering
	// slots 供 MarkCoursesInProgress 联表查询
	slots *mockScheduleSlotRepo
}

func newMockOfferingRepo() *mockOfferingRepo {
	return &mockOfferingRepo{
		proposals:  make(map[string]*model.OfferingProposal),
		professors: make(map[string][]model.OfferingProfessor),
		courses:    make(map[string]*model.CourseOffering),
	}
}

func (m *mockOfferingRepo) CreateProposal(_ context.Context, p *model.OfferingProposal, professors []model.OfferingProfessor) error {
	m.proposals[p.OfferingNo] = p
	m.professors[p.OfferingNo] = professors
	return nil
}

func (m *mockOfferingRepo) GetProposal(_ context.Context, offeringNo string) (*model.OfferingProposal, error) {
	if p, ok := m.proposals[offeringNo]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferingRepo) GetProposalForUpdate(ctx context.Context, offeringNo string) (*model.OfferingProposal, error) {
	return m.GetProposal(ctx, offeringNo)
}

func (m *mockOfferingRepo) UpdateProposalStatus(_ context.Context, offeringNo string, status model.OfferingProposalStatus) error {
	if p, ok := m.proposals[offeringNo]; ok {
		p.Status = status
	}
	return nil
}

func (m *mockOfferingRepo) ListProposalsByStatusForUpdate(_ context.Context, status model.OfferingProposalStatus) ([]model.OfferingProposal, error) {
	var result []model.OfferingProposal
	for _, p := range m.proposals {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockOfferingRepo) ListProfessors(_ context.Context, offeringNo string) ([]model.OfferingProfessor, error) {
	result := append([]model.OfferingProfessor(nil), m.professors[offeringNo]...)
	sort.Slice(result, func(i, j int) bool { return result[i].ProfessorNo < result[j].ProfessorNo })
	return result, nil
}

func (m *mockOfferingRepo) ListOfferingsByProfessor(_ context.Context, professorNo string) ([]model.OfferingProfessor, error) {
	var result []model.OfferingProfessor
	for _, list := range m.professors {
		for _, p := range list {
			if p.ProfessorNo == professorNo {
				result = append(result, p)
			}
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) CreateCourse(_ context.Context, c *model.CourseOffering) error {
	m.courses[c.OfferingNo] = c
	return nil
}

func (m *mockOfferingRepo) GetCourse(_ context.Context, offeringNo string) (*model.CourseOffering, error) {
	if c, ok := m.courses[offeringNo]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferingRepo) GetCourseForUpdate(ctx context.Context, offeringNo string) (*model.CourseOffering, error) {
	return m.GetCourse(ctx, offeringNo)
}

func (m *mockOfferingRepo) UpdateCourseStatus(_ context.Context, offeringNo string, status model.CourseStatus) error {
	if c, ok := m.courses[offeringNo]; ok {
		c.Status = status
	}
	return nil
}

func (m *mockOfferingRepo) SetHeadcount(_ context.Context, offeringNo string, headcount int) error {
	if c, ok := m.courses[offeringNo]; ok {
		c.CurrentHeadcount = headcount
	}
	return nil
}

func (m *mockOfferingRepo) ListCoursesBySemester(_ context.Context, semesterCode string) ([]model.CourseOffering, error) {
	var result []model.CourseOffering
	for _, c := range m.courses {
		if c.SemesterCode == semesterCode {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) ListCoursesByCourse(_ context.Context, courseNo, semesterCode string) ([]model.CourseOffering, error) {
	var result []model.CourseOffering
	for _, c := range m.courses {
		if c.CourseNo == courseNo && c.SemesterCode == semesterCode {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) ListCoursesByStatusForUpdate(_ context.Context, semesterCode string, status model.CourseStatus) ([]model.CourseOffering, error) {
	var result []model.CourseOffering
	for _, c := range m.courses {
		if c.SemesterCode == semesterCode && c.Status == status {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) ListCoursesBySemesterForUpdate(_ context.Context, semesterCode string) ([]model.CourseOffering, error) {
	var result []model.CourseOffering
	for _, c := range m.courses {
		if c.SemesterCode == semesterCode {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OfferingNo < result[j].OfferingNo })
	return result, nil
}

func (m *mockOfferingRepo) CountProposalsByCourseStatus(_ context.Context, courseNo, semesterCode string, status model.OfferingProposalStatus) (int64, error) {
	var count int64
	for _, p := range m.proposals {
		if p.CourseNo == courseNo && p.SemesterCode == semesterCode && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockOfferingRepo) ResetHeadcountsBySemester(_ context.Context, semesterCode string) error {
	for _, c := range m.courses {
		if c.SemesterCode == semesterCode {
			c.CurrentHeadcount = 0
		}
	}
	return nil
}

func (m *mockOfferingRepo) MarkCoursesInProgress(_ context.Context) (int64, error) {
	if m.slots == nil {
		return 0, nil
	}
	started := make(map[string]bool)
	for _, s := range m.slots.slots {
		if s.Status != model.SlotAwaitingClass {
			started[s.OfferingNo] = true
		}
	}
	var count int64
	for _, c := range m.courses {
		if c.Status == model.CourseNotStarted && started[c.OfferingNo] {
			c.Status = model.CourseInProgress
			count++
		}
	}
	return count, nil
}

// ── Mock ScheduleSlotRepository ──

type mockScheduleSlotRepo struct {
	slots []model.ScheduleSlot
	// enrollments 供 ListByStudentDate 联表查询
	enrollments *mockEnrollmentRepo
}

func newMockScheduleSlotRepo() *mockScheduleSlotRepo {
	return &mockScheduleSlotRepo{}
}

func (m *mockScheduleSlotRepo) BatchCreate(_ context.Context, slots []model.ScheduleSlot) error {
	// 模拟唯一索引：整批内或与既有课时撞 (日期, 教室, 节次) 即整批失败
	seen := make(map[string]bool)
	for _, s := range m.slots {
		seen[s.CalendarDate.Format("2006-01-02")+"|"+s.RoomNo+"|"+s.LessonPeriod] = true
	}
	for _, s := range slots {
		key := s.CalendarDate.Format("2006-01-02") + "|" + s.RoomNo + "|" + s.LessonPeriod
		if seen[key] {
			return fmt.Errorf("duplicate key value violates unique constraint: %s", key)
		}
		seen[key] = true
	}
	m.slots = append(m.slots, slots...)
	return nil
}

func (m *mockScheduleSlotRepo) CountAt(_ context.Context, date time.Time, roomNo, lessonPeriod string) (int64, error) {
	var count int64
	for _, s := range m.slots {
		if s.CalendarDate.Equal(date) && s.RoomNo == roomNo && s.LessonPeriod == lessonPeriod {
			count++
		}
	}
	return count, nil
}

func (m *mockScheduleSlotRepo) ListByOffering(_ context.Context, offeringNo string) ([]model.ScheduleSlot, error) {
	var result []model.ScheduleSlot
	for _, s := range m.slots {
		if s.OfferingNo == offeringNo {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClassHourIndex < result[j].ClassHourIndex })
	return result, nil
}

func (m *mockScheduleSlotRepo) ListByStudentDate(ctx context.Context, studentNo string, date time.Time) ([]model.ScheduleSlot, error) {
	if m.enrollments == nil {
		return nil, nil
	}
	var result []model.ScheduleSlot
	for _, e := range m.enrollments.rows {
		if e.StudentNo != studentNo {
			continue
		}
		for _, s := range m.slots {
			if s.OfferingNo == e.OfferingNo && s.CalendarDate.Equal(date) {
				result = append(result, s)
			}
		}
	}
	return result, nil
}

func (m *mockScheduleSlotRepo) ExistsRoomOverlap(_ context.Context, roomNo string, begin, end time.Time) (bool, error) {
	for _, s := range m.slots {
		if s.RoomNo != roomNo {
			continue
		}
		slotBegin := combineHHMM(s.CalendarDate, s.BeginAt)
		slotEnd := combineHHMM(s.CalendarDate, s.EndAt)
		if model.Overlaps(slotBegin, slotEnd, begin, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockScheduleSlotRepo) MarkEndedByOffering(_ context.Context, offeringNo string) error {
	for i := range m.slots {
		if m.slots[i].OfferingNo == offeringNo {
			m.slots[i].Status = model.SlotEnded
		}
	}
	return nil
}

func (m *mockScheduleSlotRepo) MarkInClass(_ context.Context, date time.Time, nowHHMM string) (int64, error) {
	var count int64
	for i := range m.slots {
		s := &m.slots[i]
		if s.CalendarDate.Equal(date) && s.Status == model.SlotAwaitingClass &&
			s.BeginAt <= nowHHMM && s.EndAt > nowHHMM {
			s.Status = model.SlotInClass
			count++
		}
	}
	return count, nil
}

func (m *mockScheduleSlotRepo) MarkEnded(_ context.Context, date time.Time, nowHHMM string) (int64, error) {
	var count int64
	for i := range m.slots {
		s := &m.slots[i]
		if s.Status != model.SlotEnded &&
			(s.CalendarDate.Before(date) || (s.CalendarDate.Equal(date) && s.EndAt <= nowHHMM)) {
			s.Status = model.SlotEnded
			count++
		}
	}
	return count, nil
}

func (m *mockScheduleSlotRepo) ListStartingWithin(_ context.Context, date time.Time, nowHHMM, untilHHMM string) ([]model.ScheduleSlot, error) {
	var result []model.ScheduleSlot
	for _, s := range m.slots {
		if s.CalendarDate.Equal(date) && s.Status == model.SlotAwaitingClass &&
			s.BeginAt > nowHHMM && s.BeginAt <= untilHHMM {
			result = append(result, s)
		}
	}
	return result, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	rows    []model.Enrollment
	archive []model.EnrollmentArchive
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	for _, r := range m.rows {
		if r.OfferingNo == e.OfferingNo && r.StudentNo == e.StudentNo {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	m.rows = append(m.rows, *e)
	return nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, offeringNo, studentNo string) (int64, error) {
	var kept []model.Enrollment
	var deleted int64
	for _, r := range m.rows {
		if r.OfferingNo == offeringNo && r.StudentNo == studentNo {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return deleted, nil
}

func (m *mockEnrollmentRepo) Exists(_ context.Context, offeringNo, studentNo string) (bool, error) {
	for _, r := range m.rows {
		if r.OfferingNo == offeringNo && r.StudentNo == studentNo {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) CountByOffering(_ context.Context, offeringNo string) (int64, error) {
	var count int64
	for _, r := range m.rows {
		if r.OfferingNo == offeringNo {
			count++
		}
	}
	return count, nil
}

func (m *mockEnrollmentRepo) ListByOffering(_ context.Context, offeringNo string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, r := range m.rows {
		if r.OfferingNo == offeringNo {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByStudentSemester(_ context.Context, studentNo, semesterCode string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, r := range m.rows {
		if r.StudentNo == studentNo && r.SemesterCode == semesterCode {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByCourseSemester(_ context.Context, courseNo, semesterCode string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, r := range m.rows {
		if r.CourseNo == courseNo && r.SemesterCode == semesterCode {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentNo < result[j].StudentNo })
	return result, nil
}

func (m *mockEnrollmentRepo) SnapshotBySemester(_ context.Context, semesterCode string, archivedAt time.Time) error {
	for _, r := range m.rows {
		if r.SemesterCode == semesterCode {
			m.archive = append(m.archive, model.EnrollmentArchive{
				OfferingNo:   r.OfferingNo,
				StudentNo:    r.StudentNo,
				CourseNo:     r.CourseNo,
				SemesterCode: r.SemesterCode,
				ArchivedAt:   archivedAt,
			})
		}
	}
	return nil
}

func (m *mockEnrollmentRepo) DeleteBySemester(_ context.Context, semesterCode string) (int64, error) {
	var kept []model.Enrollment
	var deleted int64
	for _, r := range m.rows {
		if r.SemesterCode == semesterCode {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return deleted, nil
}

// ── Mock ExamRepository ──

type mockExamRepo struct {
	proposals     map[string]*model.ExamProposal
	exams         map[string]*model.Exam
	arrangements  map[string]*model.ExamArrangement
	seats         []model.ExamSeat
	invigilations map[string][]model.Invigilation
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{
		proposals:     make(map[string]*model.ExamProposal),
		exams:         make(map[string]*model.Exam),
		arrangements:  make(map[string]*model.ExamArrangement),
		invigilations: make(map[string][]model.Invigilation),
	}
}

func (m *mockExamRepo) CreateProposal(_ context.Context, p *model.ExamProposal) error {
	m.proposals[p.ID] = p
	return nil
}

func (m *mockExamRepo) GetProposalForUpdate(_ context.Context, id string) (*model.ExamProposal, error) {
	if p, ok := m.proposals[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExamRepo) UpdateProposalStatus(_ context.Context, id string, status model.ExamProposalStatus) error {
	if p, ok := m.proposals[id]; ok {
		p.Status = status
	}
	return nil
}

func (m *mockExamRepo) LatestApprovedByExam(_ context.Context, examNo string) (*model.ExamProposal, error) {
	var latest *model.ExamProposal
	for _, p := range m.proposals {
		if p.ExamNo != examNo || p.Status != model.ExamProposalApproved {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockExamRepo) ListApprovedBeginningBetween(_ context.Context, from, until time.Time) ([]model.ExamProposal, error) {
	var result []model.ExamProposal
	for _, p := range m.proposals {
		if p.Status == model.ExamProposalApproved && p.BeginTime.After(from) && !p.BeginTime.After(until) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockExamRepo) ExistsApprovedWindowOverlap(_ context.Context, roomNo string, begin, end time.Time, excludeExamNo string) (bool, error) {
	for _, a := range m.arrangements {
		if a.RoomNo != roomNo || a.ExamNo == excludeExamNo {
			continue
		}
		for _, p := range m.proposals {
			if p.ExamNo == a.ExamNo && p.Status == model.ExamProposalApproved &&
				model.Overlaps(p.BeginTime, p.EndTime, begin, end) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockExamRepo) GetExam(_ context.Context, examNo string) (*model.Exam, error) {
	if e, ok := m.exams[examNo]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExamRepo) GetExamForUpdate(ctx context.Context, examNo string) (*model.Exam, error) {
	return m.GetExam(ctx, examNo)
}

func (m *mockExamRepo) CreateExam(_ context.Context, e *model.Exam) error {
	m.exams[e.ExamNo] = e
	return nil
}

func (m *mockExamRepo) UpdateExamStatus(_ context.Context, examNo string, status model.ExamStatus) error {
	if e, ok := m.exams[examNo]; ok {
		e.Status = status
	}
	return nil
}

func (m *mockExamRepo) ListExamsNotEnded(_ context.Context) ([]model.Exam, error) {
	var result []model.Exam
	for _, e := range m.exams {
		if e.Status != model.ExamEnded {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExamRepo) CreateArrangement(_ context.Context, a *model.ExamArrangement) error {
	m.arrangements[a.ArrangeID] = a
	return nil
}

func (m *mockExamRepo) GetArrangementForUpdate(_ context.Context, arrangeID string) (*model.ExamArrangement, error) {
	if a, ok := m.arrangements[arrangeID]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExamRepo) ListArrangementsByExam(_ context.Context, examNo string) ([]model.ExamArrangement, error) {
	var result []model.ExamArrangement
	for _, a := range m.arrangements {
		if a.ExamNo == examNo {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SeqNo < result[j].SeqNo })
	return result, nil
}

func (m *mockExamRepo) BatchCreateSeats(_ context.Context, seats []model.ExamSeat) error {
	m.seats = append(m.seats, seats...)
	return nil
}

func (m *mockExamRepo) CountSeats(_ context.Context, arrangeID string) (int64, error) {
	var count int64
	for _, s := range m.seats {
		if s.ArrangeID == arrangeID {
			count++
		}
	}
	return count, nil
}

func (m *mockExamRepo) MaxSeatNo(_ context.Context, arrangeID string) (int, error) {
	max := -1
	for _, s := range m.seats {
		if s.ArrangeID == arrangeID && s.SeatNo > max {
			max = s.SeatNo
		}
	}
	return max, nil
}

func (m *mockExamRepo) ListSeatedStudents(_ context.Context, examNo string) ([]string, error) {
	var result []string
	for _, s := range m.seats {
		if s.ExamNo == examNo {
			result = append(result, s.StudentNo)
		}
	}
	return result, nil
}

func (m *mockExamRepo) ListSeatsByArrangement(_ context.Context, arrangeID string) ([]model.ExamSeat, error) {
	var result []model.ExamSeat
	for _, s := range m.seats {
		if s.ArrangeID == arrangeID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SeatNo < result[j].SeatNo })
	return result, nil
}

func (m *mockExamRepo) MarkSeatsCompletedByExam(_ context.Context, examNo string) error {
	for i := range m.seats {
		if m.seats[i].ExamNo == examNo && m.seats[i].Status == model.DutyWaiting {
			m.seats[i].Status = model.DutyCompleted
		}
	}
	return nil
}

func (m *mockExamRepo) ReplaceInvigilations(_ context.Context, arrangeID string, rows []model.Invigilation) error {
	m.invigilations[arrangeID] = rows
	return nil
}

func (m *mockExamRepo) ListInvigilationsByArrangement(_ context.Context, arrangeID string) ([]model.Invigilation, error) {
	return m.invigilations[arrangeID], nil
}

func (m *mockExamRepo) MarkInvigilationsCompletedByExam(_ context.Context, examNo string) error {
	for arrangeID, rows := range m.invigilations {
		if a, ok := m.arrangements[arrangeID]; !ok || a.ExamNo != examNo {
			continue
		}
		for i := range rows {
			if rows[i].Status == model.DutyWaiting {
				rows[i].Status = model.DutyCompleted
			}
		}
		m.invigilations[arrangeID] = rows
	}
	return nil
}

// ── Mock MessageRepository ──

type mockMessageRepo struct {
	messages []model.Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) BatchCreate(_ context.Context, recipients []string, content string, priority model.MessagePriority, category model.MessageCategory, relatedKey string) error {
	for i, no := range recipients {
		m.messages = append(m.messages, model.Message{
			ID:          fmt.Sprintf("msg-%d-%d", len(m.messages), i),
			RecipientNo: no,
			Content:     content,
			Priority:    priority,
			Category:    category,
			RelatedKey:  relatedKey,
			CreatedAt:   time.Now(),
		})
	}
	return nil
}

func (m *mockMessageRepo) ExistsRelated(_ context.Context, recipientNo, relatedKey string) (bool, error) {
	for _, msg := range m.messages {
		if msg.RecipientNo == recipientNo && msg.RelatedKey == relatedKey {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMessageRepo) ListByRecipient(_ context.Context, recipientNo string, limit int) ([]model.Message, error) {
	var result []model.Message
	for _, msg := range m.messages {
		if msg.RecipientNo == recipientNo {
			result = append(result, msg)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
