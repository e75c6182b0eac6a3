package model

import (
	"fmt"
	"time"

	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 课程属性类别 ──

type AttributeClass string

const (
	AttrRequiredCore    AttributeClass = "required_core"    // 公共必修（系管理员提交）
	AttrRequiredMajor   AttributeClass = "required_major"   // 专业必修（系管理员提交）
	AttrGeneralElective AttributeClass = "general_elective" // 公共选修（教师提交）
	AttrPersonalized    AttributeClass = "personalized"     // 个性化课程（教师提交）
)

// classPrefixes 课程号前缀：属性类别 → 2 位大写字母
var classPrefixes = map[AttributeClass]string{
	AttrRequiredCore:    "RC",
	AttrRequiredMajor:   "RM",
	AttrGeneralElective: "GX",
	AttrPersonalized:    "PS",
}

// ClassPrefix 返回属性类别对应的课程号前缀
func ClassPrefix(attr AttributeClass) (string, bool) {
	p, ok := classPrefixes[attr]
	return p, ok
}

// ── 考试属性 ──

type ExamAttribute string

const (
	ExamRegular ExamAttribute = "regular"
	ExamMakeup  ExamAttribute = "makeup"
	ExamOther   ExamAttribute = "other"
)

// examAttributeLetters 考试号尾字母
var examAttributeLetters = map[ExamAttribute]string{
	ExamRegular: "R",
	ExamMakeup:  "M",
	ExamOther:   "O",
}

// ── 序号十六进制后缀 ──

// maxHexSeq 3 位十六进制后缀的容量上限（12 bit）
const maxHexSeq = 0xFFF

// HexSuffix 将序号渲染为 3 位大写十六进制后缀。
// 超出容量是该请求的终态分配失败，不重试。
func HexSuffix(seq int) (string, error) {
	if seq < 0 || seq > maxHexSeq {
		return "", apperrors.Validation("序号 %d 超出编号容量上限 %d", seq, maxHexSeq)
	}
	return fmt.Sprintf("%03X", seq), nil
}

// ── 编号组装 ──
// 格式固定，与历史数据位保持一致：
//   课程号     = 类别前缀 + 院系代码 + 学期窗口 + 3位十六进制
//   开课号     = 课程号 + "-" + 学期 + "-" + 3位十六进制
//   考试号     = "E" + 学期 + 3位十六进制 + 属性字母
//   考场安排号 = 考试号 + "-" + 3位十六进制

// ComposeCourseNo 组装课程号
func ComposeCourseNo(attr AttributeClass, departmentCode, semesterWindow string, seq int) (string, error) {
	prefix, ok := ClassPrefix(attr)
	if !ok {
		return "", apperrors.Validation("未知的课程属性类别 %q", attr)
	}
	suffix, err := HexSuffix(seq)
	if err != nil {
		return "", err
	}
	return prefix + departmentCode + semesterWindow + suffix, nil
}

// ComposeOfferingNo 组装开课号
func ComposeOfferingNo(courseNo, semesterCode string, seq int) (string, error) {
	suffix, err := HexSuffix(seq)
	if err != nil {
		return "", err
	}
	return courseNo + "-" + semesterCode + "-" + suffix, nil
}

// ComposeExamNo 组装考试号
func ComposeExamNo(semesterCode string, seq int, attr ExamAttribute) (string, error) {
	letter, ok := examAttributeLetters[attr]
	if !ok {
		return "", apperrors.Validation("未知的考试属性 %q", attr)
	}
	suffix, err := HexSuffix(seq)
	if err != nil {
		return "", err
	}
	return "E" + semesterCode + suffix + letter, nil
}

// ComposeArrangeID 组装考场安排号
func ComposeArrangeID(examNo string, seq int) (string, error) {
	suffix, err := HexSuffix(seq)
	if err != nil {
		return "", err
	}
	return examNo + "-" + suffix, nil
}

// ── 节次时刻表 ──

// PeriodWindow 一个节次的起止时刻（HH:MM）
type PeriodWindow struct {
	Begin string
	End   string
}

// periodTable 全校统一节次表，节次编号为两位零填充字符串
var periodTable = map[string]PeriodWindow{
	"01": {"08:00", "08:45"},
	"02": {"08:55", "09:40"},
	"03": {"10:00", "10:45"},
	"04": {"10:55", "11:40"},
	"05": {"14:00", "14:45"},
	"06": {"14:55", "15:40"},
	"07": {"16:00", "16:45"},
	"08": {"16:55", "17:40"},
	"09": {"19:00", "19:45"},
	"10": {"19:55", "20:40"},
}

// PeriodWindowOf 查询节次起止时刻
func PeriodWindowOf(period string) (PeriodWindow, bool) {
	w, ok := periodTable[period]
	return w, ok
}

// SlotInterval 将 (日期, 节次) 转为本地时区的具体时间区间 [begin, end)
func SlotInterval(date time.Time, period string) (time.Time, time.Time, bool) {
	w, ok := periodTable[period]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	begin := combineDateTime(date, w.Begin)
	end := combineDateTime(date, w.End)
	return begin, end, true
}

func combineDateTime(date time.Time, hhmm string) time.Time {
	t, _ := time.ParseInLocation("15:04", hhmm, time.Local)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}

// Overlaps 半开区间 [begin, end) 重叠判定
func Overlaps(aBegin, aEnd, bBegin, bEnd time.Time) bool {
	return aBegin.Before(bEnd) && bBegin.Before(aEnd)
}

// DateOfISOWeek 返回指定 ISO 周内匹配 weekday 的那一天（ISO 周一为一周之始）。
// weekday 取 1(周一) ~ 7(周日)。
func DateOfISOWeek(year, week, weekday int) time.Time {
	// 1月4日必在第一周
	ref := time.Date(year, time.January, 4, 0, 0, 0, 0, time.Local)
	refWeekday := int(ref.Weekday())
	if refWeekday == 0 {
		refWeekday = 7 // 周日按 ISO 记 7
	}
	monday := ref.AddDate(0, 0, -(refWeekday - 1))
	return monday.AddDate(0, 0, (week-1)*7+(weekday-1))
}
