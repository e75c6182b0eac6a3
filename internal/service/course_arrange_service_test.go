package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/dto"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

func setupTestCourseArrangeService() (*testEnv, CourseArrangeService) {
	env := newTestEnv()
	env.seedTerm()
	env.setFlags(true, true, true)
	return env, NewCourseArrangeService(env.repo, testLogger())
}

func offeringReq(courseNo string) *dto.SubmitOfferingRequest {
	return &dto.SubmitOfferingRequest{
		CourseNo:     courseNo,
		Campus:       "本部",
		MaxHeadcount: 60,
		Weekdays:     []int{2, 4},
	}
}

func TestSubmitOffering(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	env.addAccount("P001", model.RoleProfessor, "ZB")
	env.addCurricular("GXZB01000", "数据库系统原理", 4)

	p1, err := svc.SubmitOffering(context.Background(), "P001", offeringReq("GXZB01000"))
	if err != nil {
		t.Fatalf("提交开课提案失败: %v", err)
	}
	if p1.OfferingNo != "GXZB01000-20251-000" {
		t.Errorf("开课号应为 GXZB01000-20251-000, 实际 %s", p1.OfferingNo)
	}
	if p1.Status != model.OfferingPendingReview {
		t.Errorf("新提案应处于待审状态, 实际 %s", p1.Status)
	}
	// 未指定教师时默认提交者本人任课
	profs := env.off.professors[p1.OfferingNo]
	if len(profs) != 1 || profs[0].ProfessorNo != "P001" {
		t.Errorf("默认任课教师应为提交者本人, 实际 %v", profs)
	}

	// 同课程同学期序号连续
	p2, err := svc.SubmitOffering(context.Background(), "P001", offeringReq("GXZB01000"))
	if err != nil {
		t.Fatalf("第二次提交失败: %v", err)
	}
	if p2.OfferingNo != "GXZB01000-20251-001" {
		t.Errorf("第二个开课号应为 GXZB01000-20251-001, 实际 %s", p2.OfferingNo)
	}
}

func TestSubmitOffering_Gates(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	env.addAccount("P001", model.RoleProfessor, "ZB")
	env.addAccount("S001", model.RoleStudent, "ZB")
	env.addCurricular("GXZB01000", "数据库系统原理", 4)

	if _, err := svc.SubmitOffering(context.Background(), "S001", offeringReq("GXZB01000")); !errors.Is(err, ErrNotProfessorRole) {
		t.Errorf("学生提交开课提案应拒绝, 实际 %v", err)
	}

	req := offeringReq("GXZB01000")
	req.Weekdays = []int{0}
	if _, err := svc.SubmitOffering(context.Background(), "P001", req); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("非法星期取值应拒绝, 实际 %v", err)
	}

	env.setFlags(true, false, true)
	if _, err := svc.SubmitOffering(context.Background(), "P001", offeringReq("GXZB01000")); !errors.Is(err, ErrOfferingClosed) {
		t.Errorf("开关关闭时提交应拒绝, 实际 %v", err)
	}
}

func TestSubmitOffering_ForcePublishUnlistedCourse(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	env.addAccount("P001", model.RoleProfessor, "ZB")

	// 课程号不在目录但有待审提案：提交开课触发强制发布
	env.cat.proposals["prop-1"] = &model.CatalogProposal{
		ID: "prop-1", Variant: model.VariantProfessor, CourseNo: "GXZB01000",
		Name: "数据库系统原理", Credit: 3, ClassHours: 4, ExamAttribute: model.ExamRegular,
		Status: model.CatalogWaitingForOffering, SubmitterNo: "P001",
		CreatedAt: time.Now(),
	}
	env.cat.pool["GXZB01000"] = &model.CnoPoolEntry{
		CourseNo: "GXZB01000", AttributeClass: model.AttrGeneralElective,
		DepartmentCode: "ZB", SemesterWindow: "01", Status: model.PoolBeingAdjusted,
	}

	if _, err := svc.SubmitOffering(context.Background(), "P001", offeringReq("GXZB01000")); err != nil {
		t.Fatalf("提交应触发强制发布并成功: %v", err)
	}
	if _, ok := env.cat.curriculars["GXZB01000"]; !ok {
		t.Error("强制发布后课程应进入目录")
	}
	if env.cat.proposals["prop-1"].Status != model.CatalogApproved {
		t.Errorf("被强制发布的提案应为 approved, 实际 %s", env.cat.proposals["prop-1"].Status)
	}

	// 没有任何可发布提案时整体失败
	if _, err := svc.SubmitOffering(context.Background(), "P001", offeringReq("GXZB01999")); !errors.Is(err, ErrNoPublishableProposal) {
		t.Errorf("无可发布提案时应整体失败, 实际 %v", err)
	}
}

// seedPendingOffering 排课测试的公共铺垫：目录课程 + 待审开课提案
func seedPendingOffering(env *testEnv, classHours int) string {
	env.addAccount("P001", model.RoleProfessor, "ZB")
	env.addCurricular("GXZB01000", "数据库系统原理", classHours)
	offeringNo := "GXZB01000-20251-000"
	env.off.proposals[offeringNo] = &model.OfferingProposal{
		OfferingNo:   offeringNo,
		CourseNo:     "GXZB01000",
		SemesterCode: "20251",
		Campus:       "本部",
		MaxHeadcount: 60,
		Status:       model.OfferingPendingReview,
		CreatorNo:    "P001",
		Weekdays:     pq.Int64Array{2},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	env.off.professors[offeringNo] = []model.OfferingProfessor{
		{OfferingNo: offeringNo, ProfessorNo: "P001"},
	}
	return offeringNo
}

func TestArrange_Success(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 4)

	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    2,
		WeekPlans: []dto.WeekPlan{
			{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"01", "02"}},
			{Year: 2025, Week: 41, RoomNo: "A101", Periods: []string{"01", "02"}},
		},
	}
	if err := svc.Arrange(context.Background(), req); err != nil {
		t.Fatalf("排课失败: %v", err)
	}

	slots, _ := env.slot.ListByOffering(context.Background(), offeringNo)
	if len(slots) != 4 {
		t.Fatalf("应落 4 个课时, 实际 %d", len(slots))
	}
	for i, sl := range slots {
		if sl.ClassHourIndex != i+1 {
			t.Errorf("课时序号应从 1 连续编号, 第 %d 个实际 %d", i, sl.ClassHourIndex)
		}
		if sl.Status != model.SlotAwaitingClass {
			t.Errorf("新课时状态应为 awaiting_class, 实际 %s", sl.Status)
		}
	}
	// 课时日期按周定位到周二
	wantFirst := model.DateOfISOWeek(2025, 40, 2)
	if !slots[0].CalendarDate.Equal(wantFirst) {
		t.Errorf("首课时日期应为 %s, 实际 %s", wantFirst.Format("2006-01-02"), slots[0].CalendarDate.Format("2006-01-02"))
	}

	course, ok := env.off.courses[offeringNo]
	if !ok {
		t.Fatal("排课后应创建课程实例")
	}
	if course.Status != model.CourseNotStarted || course.MaxHeadcount != 60 {
		t.Errorf("课程实例初始状态不正确: %+v", course)
	}
	if env.off.proposals[offeringNo].Status != model.OfferingWaitingForEnrollment {
		t.Errorf("排课成功后提案应为 waiting_for_enrollment, 实际 %s", env.off.proposals[offeringNo].Status)
	}
}

func TestArrange_WeekdayNotDeclared(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 2)

	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    3, // 提案只声明了周二
		WeekPlans:  []dto.WeekPlan{{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"01", "02"}}},
	}
	if err := svc.Arrange(context.Background(), req); !errors.Is(err, ErrWeekdayNotDeclared) {
		t.Errorf("未声明的星期应拒绝, 实际 %v", err)
	}
}

func TestArrange_ClassHoursMismatchAllOrNothing(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 4)

	// 只排 2 节，与目录声明的 4 课时不符
	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    2,
		WeekPlans:  []dto.WeekPlan{{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"01", "02"}}},
	}
	err := svc.Arrange(context.Background(), req)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("课时数不符应拒绝, 实际 %v", err)
	}

	// 整体失败：不落任何课时，提案状态不动
	if len(env.slot.slots) != 0 {
		t.Errorf("失败的排课不应留下课时, 实际 %d 条", len(env.slot.slots))
	}
	if env.off.proposals[offeringNo].Status != model.OfferingPendingReview {
		t.Errorf("失败后提案应仍为待审, 实际 %s", env.off.proposals[offeringNo].Status)
	}
	if _, ok := env.off.courses[offeringNo]; ok {
		t.Error("失败的排课不应创建课程实例")
	}
}

func TestArrange_NoFreeDateInWeek(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 4)

	// 同一周同一教室出现两次：该周已无空闲日期
	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    2,
		WeekPlans: []dto.WeekPlan{
			{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"01", "02"}},
			{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"03", "04"}},
		},
	}
	err := svc.Arrange(context.Background(), req)
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Fatalf("同周重复占用应报冲突, 实际 %v", err)
	}
	if len(env.slot.slots) != 0 {
		t.Errorf("失败的排课不应留下课时, 实际 %d 条", len(env.slot.slots))
	}
}

func TestArrange_RoomPeriodCollision(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 2)

	// 另一门课已占用目标 (日期, 教室, 节次)
	date := model.DateOfISOWeek(2025, 40, 2)
	env.addSlot("OTHER-20251-000", 1, date, "A101", "02", "P009")

	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    2,
		WeekPlans:  []dto.WeekPlan{{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"01", "02"}}},
	}
	err := svc.Arrange(context.Background(), req)
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Fatalf("节次被占用应报冲突, 实际 %v", err)
	}
	// 只有铺垫的那条课时，候选一条都没落
	if len(env.slot.slots) != 1 {
		t.Errorf("冲突时不应写入任何候选课时, 实际共 %d 条", len(env.slot.slots))
	}
}

func TestArrange_UnknownPeriod(t *testing.T) {
	env, svc := setupTestCourseArrangeService()
	offeringNo := seedPendingOffering(env, 2)
	_ = env

	req := &dto.ArrangeCourseRequest{
		OfferingNo: offeringNo,
		Weekday:    2,
		WeekPlans:  []dto.WeekPlan{{Year: 2025, Week: 40, RoomNo: "A101", Periods: []string{"11", "12"}}},
	}
	if err := svc.Arrange(context.Background(), req); !errors.Is(err, ErrUnknownLessonPeriod) {
		t.Errorf("未知节次应拒绝, 实际 %v", err)
	}
}
