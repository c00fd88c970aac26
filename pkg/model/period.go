// Package model 定义道路考试监考分配引擎的核心数据模型
package model

import "fmt"

// Period 教时（一天固定5个时段，1-2为上午，3-5为下午）
type Period int

const (
	NoPeriod    Period = 0
	FirstPeriod Period = 1
	LastPeriod  Period = 5
)

// HalfDay 半天
type HalfDay string

const (
	Morning   HalfDay = "morning"
	Afternoon HalfDay = "afternoon"
)

// 教时默认容量：1、5教时每人最多2项，其余3项
const (
	EdgeCapacity     = 2
	InteriorCapacity = 3
)

// Valid 检查教时是否在1-5范围内
func (p Period) Valid() bool {
	return p >= FirstPeriod && p <= LastPeriod
}

// HalfDay 返回所属半天
func (p Period) HalfDay() HalfDay {
	if p <= 2 {
		return Morning
	}
	return Afternoon
}

// IsFirstOfHalfDay 是否为半天的第一个教时（1、3）
func (p Period) IsFirstOfHalfDay() bool {
	return p == 1 || p == 3
}

// IsSecondOfHalfDay 是否为半天的第二个教时（2、4）
func (p Period) IsSecondOfHalfDay() bool {
	return p == 2 || p == 4
}

// Next 返回下一教时；最后一个教时返回 NoPeriod
func (p Period) Next() Period {
	if !p.Valid() || p == LastPeriod {
		return NoPeriod
	}
	return p + 1
}

// Capacity 返回该教时每人可分配的最大项目数
func (p Period) Capacity() int {
	if p == FirstPeriod || p == LastPeriod {
		return EdgeCapacity
	}
	return InteriorCapacity
}

// Periods 返回某半天包含的教时
func (h HalfDay) Periods() []Period {
	if h == Morning {
		return []Period{1, 2}
	}
	return []Period{3, 4, 5}
}

// String 返回如 "P3" 的表示
func (p Period) String() string {
	return fmt.Sprintf("P%d", int(p))
}
