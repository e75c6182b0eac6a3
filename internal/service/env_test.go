package service

import (
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
)

// testEnv 把全部 mock 仓库装进一个 Repository 聚合。
// db 为空，BeginTx 返回空事务，服务层走与生产完全相同的代码路径。
type testEnv struct {
	seq  *mockSequenceRepo
	sem  *mockSemesterRepo
	acc  *mockAccountRepo
	room *mockClassroomRepo
	cat  *mockCatalogRepo
	off  *mockOfferingRepo
	slot *mockScheduleSlotRepo
	enr  *mockEnrollmentRepo
	exam *mockExamRepo
	msg  *mockMessageRepo

	repo *repository.Repository
}

func newTestEnv() *testEnv {
	env := &testEnv{
		seq:  newMockSequenceRepo(),
		sem:  newMockSemesterRepo(),
		acc:  newMockAccountRepo(),
		room: newMockClassroomRepo(),
		cat:  newMockCatalogRepo(),
		off:  newMockOfferingRepo(),
		slot: newMockScheduleSlotRepo(),
		enr:  newMockEnrollmentRepo(),
		exam: newMockExamRepo(),
		msg:  newMockMessageRepo(),
	}
	env.slot.enrollments = env.enr
	env.off.slots = env.slot
	env.repo = &repository.Repository{
		Sequence:     env.seq,
		Semester:     env.sem,
		Account:      env.acc,
		Classroom:    env.room,
		Catalog:      env.cat,
		Offering:     env.off,
		ScheduleSlot: env.slot,
		Enrollment:   env.enr,
		Exam:         env.exam,
		Message:      env.msg,
	}
	return env
}

func testLogger() *zap.Logger { return zap.NewNop() }

// seedTerm 写入当前学期 20251，学期窗口 01
func (e *testEnv) seedTerm() *model.Semester {
	sem := &model.Semester{
		Code:       "20251",
		Name:       "2025学年第1学期",
		StartDate:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.Local),
		EndDate:    time.Date(2026, 1, 18, 0, 0, 0, 0, time.Local),
		WindowCode: "01",
		IsCurrent:  true,
	}
	e.sem.semesters[sem.Code] = sem
	return sem
}

func (e *testEnv) setFlags(catalog, offering, enroll bool) {
	e.sem.flags["20251"] = &model.FlagSet{
		CatalogOpen:  catalog,
		OfferingOpen: offering,
		EnrollOpen:   enroll,
	}
}

func (e *testEnv) addAccount(userNo string, role model.Role, dept string) *model.Account {
	a := &model.Account{
		UserNo:         userNo,
		Role:           role,
		Name:           "测试账号" + userNo,
		DepartmentCode: dept,
	}
	e.acc.accounts[userNo] = a
	return a
}

func (e *testEnv) addAdminWithPassword(userNo, dept, password string) *model.Account {
	a := e.addAccount(userNo, model.RoleDepartmentAdmin, dept)
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	a.PasswordHash = string(hash)
	return a
}

func (e *testEnv) addRoom(roomNo string, capacity int) *model.Classroom {
	r := &model.Classroom{RoomNo: roomNo, Capacity: capacity, Status: model.ClassroomNormal}
	e.room.rooms[roomNo] = r
	return r
}

func (e *testEnv) addCurricular(courseNo, name string, classHours int) *model.Curricular {
	c := &model.Curricular{
		CourseNo:      courseNo,
		Name:          name,
		Credit:        2.0,
		ClassHours:    classHours,
		ExamAttribute: model.ExamRegular,
		Status:        "published",
		UpdatedAt:     time.Now(),
	}
	e.cat.curriculars[courseNo] = c
	return c
}

// addCourse 写入一个可选状态的课程实例及其对应的开课提案
func (e *testEnv) addCourse(offeringNo, courseNo, creatorNo string, maxHeadcount int) *model.CourseOffering {
	e.off.proposals[offeringNo] = &model.OfferingProposal{
		OfferingNo:   offeringNo,
		CourseNo:     courseNo,
		SemesterCode: "20251",
		Campus:       "本部",
		MaxHeadcount: maxHeadcount,
		Status:       model.OfferingWaitingForEnrollment,
		CreatorNo:    creatorNo,
		Weekdays:     pq.Int64Array{2},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	e.off.professors[offeringNo] = []model.OfferingProfessor{{OfferingNo: offeringNo, ProfessorNo: creatorNo}}
	c := &model.CourseOffering{
		OfferingNo:   offeringNo,
		CourseNo:     courseNo,
		SemesterCode: "20251",
		MaxHeadcount: maxHeadcount,
		Status:       model.CourseNotStarted,
		UpdatedAt:    time.Now(),
	}
	e.off.courses[offeringNo] = c
	return c
}

// addSlot 写入一条待上课课时
func (e *testEnv) addSlot(offeringNo string, index int, date time.Time, roomNo, period, professorNo string) model.ScheduleSlot {
	w, _ := model.PeriodWindowOf(period)
	sl := model.ScheduleSlot{
		OfferingNo:     offeringNo,
		ClassHourIndex: index,
		LessonPeriod:   period,
		CalendarDate:   date,
		RoomNo:         roomNo,
		ProfessorNo:    professorNo,
		BeginAt:        w.Begin,
		EndAt:          w.End,
		Status:         model.SlotAwaitingClass,
	}
	e.slot.slots = append(e.slot.slots, sl)
	return sl
}

func (e *testEnv) enroll(offeringNo, courseNo, studentNo string) {
	e.enr.rows = append(e.enr.rows, model.Enrollment{
		OfferingNo:   offeringNo,
		StudentNo:    studentNo,
		CourseNo:     courseNo,
		SemesterCode: "20251",
		CreatedAt:    time.Now(),
	})
}

// messagesFor 某收件人收到的全部消息
func (e *testEnv) messagesFor(recipientNo string) []model.Message {
	var out []model.Message
	for _, m := range e.msg.messages {
		if m.RecipientNo == recipientNo {
			out = append(out, m)
		}
	}
	return out
}
