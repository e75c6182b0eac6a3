package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = apperrors.Internal("生成导出文件失败", nil)

// ExportService 座位表 / 个人课表导出接口
type ExportService interface {
	// ExportSeatChart 单个考场的座位表（xlsx）
	ExportSeatChart(ctx context.Context, arrangeID string) (*bytes.Buffer, string, error)
	// ExportTimetable 学生本学期课表（iCalendar）
	ExportTimetable(ctx context.Context, studentNo, semesterCode string) (string, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ────────────────────── ExportSeatChart ──────────────────────

func (s *exportService) ExportSeatChart(ctx context.Context, arrangeID string) (*bytes.Buffer, string, error) {
	arr, err := s.repo.Exam.GetArrangementForUpdate(ctx, arrangeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrArrangementNotFound
		}
		s.logger.Error("查询考场安排失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return nil, "", err
	}

	seats, err := s.repo.Exam.ListSeatsByArrangement(ctx, arrangeID)
	if err != nil {
		s.logger.Error("查询考场座位失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "座位表"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("考场 %s（教室 %s）座位表", arrangeID, arr.RoomNo))
	f.MergeCell(sheetName, "A1", "C1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheetName, "A2", "座位号")
	f.SetCellValue(sheetName, "B2", "学号")
	f.SetCellValue(sheetName, "C2", "阅卷教师")

	row := 3
	for i := range seats {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), seats[i].SeatNo)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), seats[i].StudentNo)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), seats[i].GradingOwnerNo)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("座位表_%s.xlsx", arrangeID)
	return buf, filename, nil
}

// ────────────────────── ExportTimetable ──────────────────────

func (s *exportService) ExportTimetable(ctx context.Context, studentNo, semesterCode string) (string, string, error) {
	enrollments, err := s.repo.Enrollment.ListByStudentSemester(ctx, studentNo, semesterCode)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.String("student_no", studentNo), zap.Error(err))
		return "", "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//AcademyDBMS//Timetable//CN")

	for _, e := range enrollments {
		courseName := e.CourseNo
		if c, err := s.repo.Catalog.GetCurricular(ctx, e.CourseNo); err == nil {
			courseName = c.Name
		}

		slots, err := s.repo.ScheduleSlot.ListByOffering(ctx, e.OfferingNo)
		if err != nil {
			s.logger.Error("查询课时失败", zap.String("offering_no", e.OfferingNo), zap.Error(err))
			return "", "", err
		}
		for i := range slots {
			sl := &slots[i]
			begin := combineHHMM(sl.CalendarDate, sl.BeginAt)
			end := combineHHMM(sl.CalendarDate, sl.EndAt)

			uid := fmt.Sprintf("%s-%d@academydbms", sl.OfferingNo, sl.ClassHourIndex)
			ev := cal.AddEvent(uid)
			ev.SetCreatedTime(time.Now())
			ev.SetDtStampTime(time.Now())
			ev.SetStartAt(begin)
			ev.SetEndAt(end)
			ev.SetSummary(courseName)
			ev.SetLocation(sl.RoomNo)
			ev.SetDescription(fmt.Sprintf("开课号 %s 第 %d 课时", sl.OfferingNo, sl.ClassHourIndex))
		}
	}

	filename := fmt.Sprintf("课表_%s_%s.ics", studentNo, semesterCode)
	return cal.Serialize(), filename, nil
}

// combineHHMM 把日期与 HH:MM 时刻合成本地时间
func combineHHMM(date time.Time, hhmm string) time.Time {
	t, _ := time.ParseInLocation("15:04", hhmm, time.Local)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}
