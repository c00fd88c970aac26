// Package model 定义道路考试监考分配引擎的核心数据模型
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemType 考试项目类型（驾照等级 × 变速箱类型）
type ItemType int

const (
	Type1M ItemType = iota // 1种手动
	Type1A                 // 1种自动
	Type2A                 // 2种自动
	Type2M                 // 2种手动

	NumItemTypes = 4
)

// ItemTypes 固定处理顺序（需求不可满足时决定先满足哪一类）
var ItemTypes = [NumItemTypes]ItemType{Type1M, Type1A, Type2A, Type2M}

var itemTypeCodes = [NumItemTypes]string{"1M", "1A", "2A", "2M"}

var itemTypeLabels = [NumItemTypes]string{"1种手动", "1种自动", "2种自动", "2种手动"}

// String 返回类型代码
func (t ItemType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ItemType(%d)", int(t))
	}
	return itemTypeCodes[t]
}

// Label 返回展示用名称
func (t ItemType) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return itemTypeLabels[t]
}

// Valid 检查类型是否合法
func (t ItemType) Valid() bool {
	return t >= 0 && int(t) < NumItemTypes
}

// IsAutomatic 是否为自动挡项目
func (t ItemType) IsAutomatic() bool {
	return t == Type1A || t == Type2A
}

// ParseItemType 解析类型代码（大小写不敏感）
func ParseItemType(code string) (ItemType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i, c := range itemTypeCodes {
		if c == code {
			return ItemType(i), nil
		}
	}
	return 0, fmt.Errorf("未知的项目类型: %q", code)
}

// MarshalText 实现 encoding.TextMarshaler
func (t ItemType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("无效的项目类型: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *ItemType) UnmarshalText(text []byte) error {
	parsed, err := ParseItemType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Counts 按项目类型计数（用于需求与分配结果）
type Counts [NumItemTypes]int

// Get 返回某类型的数量
func (c Counts) Get(t ItemType) int {
	return c[t]
}

// Total 返回总数
func (c Counts) Total() int {
	sum := 0
	for _, v := range c {
		sum += v
	}
	return sum
}

// Distinct 返回数量大于0的类型个数
func (c Counts) Distinct() int {
	n := 0
	for _, v := range c {
		if v > 0 {
			n++
		}
	}
	return n
}

// Mixed 是否同时持有两种及以上类型
func (c Counts) Mixed() bool {
	return c.Distinct() >= 2
}

// IsZero 是否全为0
func (c Counts) IsZero() bool {
	return c.Total() == 0
}

// Add 逐类型相加
func (c Counts) Add(other Counts) Counts {
	for i := range c {
		c[i] += other[i]
	}
	return c
}

// Sub 逐类型相减
func (c Counts) Sub(other Counts) Counts {
	for i := range c {
		c[i] -= other[i]
	}
	return c
}

// String 返回紧凑表示，如 "1M:2 2A:1"
func (c Counts) String() string {
	var parts []string
	for _, t := range ItemTypes {
		if c[t] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", t, c[t]))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

// MarshalJSON 序列化为 {"1M":0,"1A":0,"2A":0,"2M":0}
func (c Counts) MarshalJSON() ([]byte, error) {
	m := make(map[ItemType]int, NumItemTypes)
	for _, t := range ItemTypes {
		m[t] = c[t]
	}
	return json.Marshal(m)
}

// UnmarshalJSON 从类型代码键的对象反序列化，缺省键视为0
func (c *Counts) UnmarshalJSON(data []byte) error {
	var m map[ItemType]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = Counts{}
	for t, v := range m {
		c[t] = v
	}
	return nil
}
