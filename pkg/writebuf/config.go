package writebuf

import "fmt"

// Config 写缓冲配置
type Config struct {
	// 暂存块大小 (字节)，写入按此粒度分块入队
	ChunkSize int `mapstructure:"chunk_size" json:"chunk_size" yaml:"chunk_size"`

	// 环形队列容量 (块数)，队列满时写入方阻塞，构成背压
	QueueCapacity int `mapstructure:"queue_capacity" json:"queue_capacity" yaml:"queue_capacity"`
}

// DefaultConfig 返回默认写缓冲配置
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:     4096,
		QueueCapacity: 64,
	}
}

// Validate 验证配置，零值字段取默认值
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk_size must not be negative", ErrInvalidConfig)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue_capacity must not be negative", ErrInvalidConfig)
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 4096
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 64
	}
	return nil
}
