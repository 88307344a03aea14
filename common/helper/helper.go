package helper

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

func GenRequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func GetTimestamp() int64 {
	return time.Now().Unix()
}

func MessageWithRequestId(message string, id string) string {
	return fmt.Sprintf("%s (request id: %s)", message, id)
}

// Truncate 按字符截断，超出部分以 ... 结尾
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
