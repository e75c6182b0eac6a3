package model

import "github.com/lib/pq"

// ── PostgreSQL INT[] 列辅助 ──
//
// 数组列统一用 pq.Int64Array 落库（gorm 列类型 int[]），
// 这里只放领域侧的取值转换与查找。

// WeekdaysOf 把请求里的星期列表转为数组列值
func WeekdaysOf(ns []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(ns))
	for i, n := range ns {
		arr[i] = int64(n)
	}
	return arr
}

// HasWeekday 判断数组列是否包含指定星期
func HasWeekday(arr pq.Int64Array, weekday int) bool {
	for _, v := range arr {
		if v == int64(weekday) {
			return true
		}
	}
	return false
}
