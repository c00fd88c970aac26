package rotation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore 以JSON文件保存轮换记忆，每个单位一个文件
//
// 文件内容为姓名数组 ["김성연","조정래"]。旧版本保存的是记录数组
// [{"date":..,"name":..,"period":..,"type":..}]，读取时自动迁移为新格式。
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建轮换记忆目录失败: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(unit string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(unit)
	if name == "" {
		name = "default"
	}
	return filepath.Join(s.dir, "random_history_"+name+".json")
}

type legacyRecord struct {
	Name string `json:"name"`
}

// Load 实现 Store；文件不存在或内容损坏时返回空记忆
func (s *FileStore) Load(_ context.Context, unit string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(unit))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取轮换记忆失败: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil, nil
	}

	var names []string
	legacy := false
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names = append(names, name)
			continue
		}
		var rec legacyRecord
		if err := json.Unmarshal(item, &rec); err == nil && rec.Name != "" {
			names = append(names, rec.Name)
			legacy = true
		}
	}
	names = NewSet(names...).Names()

	if legacy {
		if err := s.write(unit, names); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Save 实现 Store
func (s *FileStore) Save(_ context.Context, unit string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(unit, names)
}

// Reset 实现 Store
func (s *FileStore) Reset(_ context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(unit, nil)
}

func (s *FileStore) write(unit string, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(unit) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入轮换记忆失败: %w", err)
	}
	return os.Rename(tmp, s.path(unit))
}
