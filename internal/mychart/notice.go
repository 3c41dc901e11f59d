package mychart

// NoticeLevel 提示级别
type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeSuccess NoticeLevel = "success"
)

// 用户可见提示文案
const (
	MsgFetchFailed  = "获取我的图表失败"
	MsgGenSubmitted = "分析任务提交成功，稍后请在我的图表页面查看"
)

// Notice 一条面向用户的临时提示
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier 提示协作者，只接收文案，不负责展示时长
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc 函数形式的 Notifier
type NotifierFunc func(n Notice)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Identity 当前查看者身份协作者
type Identity interface {
	// Avatar 返回头像引用
	Avatar() string
}

// StaticIdentity 固定头像的身份实现
type StaticIdentity string

// Avatar 实现 Identity
func (s StaticIdentity) Avatar() string { return string(s) }
