package flowsdk

const (
	HeaderUserAgent      = "User-Agent"
	HeaderDayflowUser    = "X-Dayflow-User"
	HeaderDayflowVersion = "X-Dayflow-Version"
)
