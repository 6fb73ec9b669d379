package tcp

// SessionHandler 会话事件处理器
// 本层对字节内容不做任何解释，分帧和编解码由上层完成。
type SessionHandler interface {
	// OnOpened 会话建立回调
	OnOpened(s *Session)

	// OnClosed 会话关闭回调
	OnClosed(s *Session, err error)

	// OnTraffic 收到入站字节回调，data 仅在回调期间有效
	OnTraffic(s *Session, data []byte)
}

// NopSessionHandler 提供 SessionHandler 的空实现
type NopSessionHandler struct{}

func (n *NopSessionHandler) OnOpened(s *Session)               {}
func (n *NopSessionHandler) OnClosed(s *Session, err error)    {}
func (n *NopSessionHandler) OnTraffic(s *Session, data []byte) {}
