package common

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/gouqi/novelai-bot/common/logger"
)

type panicHookKey struct{}

var commandGoPool gopool.Pool

func init() {
	commandGoPool = gopool.NewPool("gopool.CommandPool", math.MaxInt32, gopool.NewConfig())
	commandGoPool.SetPanicHandler(func(ctx context.Context, i interface{}) {
		logger.Errorf(ctx, "panic in gopool.CommandPool: %v\n%s", i, debug.Stack())
		if hook, ok := ctx.Value(panicHookKey{}).(func(any)); ok {
			hook(i)
		}
	})
}

// CommandGo 在协程池中执行一次指令调用，onPanic 可为空
func CommandGo(ctx context.Context, f func(), onPanic func(any)) {
	if onPanic != nil {
		ctx = context.WithValue(ctx, panicHookKey{}, onPanic)
	}
	commandGoPool.CtxGo(ctx, f)
}

func CommandPoolWorkers() string {
	return fmt.Sprintf("%d", commandGoPool.WorkerCount())
}
