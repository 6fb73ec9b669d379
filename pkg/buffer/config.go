package buffer

import "fmt"

// Config 缓冲池配置
type Config struct {
	// 单页大小 (字节)
	PageSize int `mapstructure:"page_size" json:"page_size" yaml:"page_size"`

	// 最大页数，池容量 = PageSize * MaxPages
	MaxPages int `mapstructure:"max_pages" json:"max_pages" yaml:"max_pages"`

	// 禁用直接分配回退
	// 为 true 时池满返回 ErrExhausted，而不是绕过池直接分配
	DisableDirect bool `mapstructure:"disable_direct" json:"disable_direct" yaml:"disable_direct"`
}

// DefaultConfig 返回默认缓冲池配置
func DefaultConfig() *Config {
	return &Config{
		PageSize:      1 << 20, // 1MB
		MaxPages:      4,
		DisableDirect: false,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.PageSize < 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages must be positive", ErrInvalidConfig)
	}
	if c.PageSize == 0 {
		c.PageSize = 1 << 20
	}
	if c.MaxPages == 0 {
		c.MaxPages = 4
	}
	return nil
}
