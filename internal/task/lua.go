package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/pilot/pkg/api"
)

// LuaTask runs a sandboxed Lua script. Every input is exposed to the script
// through the global inputs table and the script's return value becomes the
// task output
type LuaTask struct {
	env      *LuaEnv
	bytecode []byte
	timeout  time.Duration
}

// LuaEnv compiles and executes Lua tasks. Each invocation runs in its own
// state, so globals written by a script never reach another invocation
type LuaEnv struct {
	hookCount int
}

const (
	luaHookCount        = 1000
	luaGlobalTableIndex = -2
	luaInputsTableIndex = -3
	luaGlobalTableName  = "_G"
	luaInputsName       = "inputs"
	luaChunkName        = "task"
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

var _ Task = (*LuaTask)(nil)

// NewLuaEnv creates a Lua execution environment
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		hookCount: luaHookCount,
	}
}

// Compile checks a script and returns a task that runs it
func (e *LuaEnv) Compile(script string, timeout time.Duration) (*LuaTask, error) {
	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, script); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	return &LuaTask{
		env:      e,
		bytecode: buf.Bytes(),
		timeout:  timeout,
	}, nil
}

// Invoke runs the script. The script is stopped as soon as ctx is done or
// the timeout elapses
func (t *LuaTask) Invoke(ctx context.Context, in api.Inputs) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := t.env.execute(ctx, t.bytecode, in)
	if err == nil {
		return out, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", err
}

func (e *LuaEnv) execute(
	ctx context.Context, bytecode []byte, in api.Inputs,
) (string, error) {
	L := lua.NewState()
	e.setupSandbox(L)
	pushInputs(L, in)
	L.SetGlobal(luaInputsName)

	lua.SetDebugHook(L, func(l *lua.State, _ lua.Debug) {
		if ctx.Err() != nil {
			lua.Errorf(l, "%s", ctx.Err().Error())
		}
	}, lua.MaskCount, e.hookCount)

	if err := L.Load(bytes.NewReader(bytecode), luaChunkName, "b"); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	if err := L.ProtectedCall(0, 1, 0); err != nil {
		if msg, ok := L.ToString(-1); ok && msg != "" {
			return "", fmt.Errorf("%w: %s", ErrLuaExecution, msg)
		}
		return "", fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	return luaToString(L, -1)
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func pushInputs(L *lua.State, in api.Inputs) {
	L.CreateTable(0, len(in))
	for k, v := range in {
		L.PushString(k)
		L.PushString(v)
		L.SetTable(luaInputsTableIndex)
	}
}

func luaToString(L *lua.State, index int) (string, error) {
	switch L.TypeOf(index) {
	case lua.TypeNil:
		return "", nil
	case lua.TypeTable:
		data, err := json.Marshal(luaToGo(L, index))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrLuaExecution, err)
		}
		return string(data), nil
	default:
		return fmt.Sprint(luaToGo(L, index)), nil
	}
}

func luaToGo(L *lua.State, index int) any {
	switch L.TypeOf(index) {
	case lua.TypeBoolean:
		return L.ToBoolean(index)
	case lua.TypeNumber:
		num, _ := L.ToNumber(index)
		if num == float64(int64(num)) {
			return int64(num)
		}
		return num
	case lua.TypeString:
		s, _ := L.ToString(index)
		return s
	case lua.TypeTable:
		return luaTableToGo(L, index)
	default:
		return nil
	}
}

func luaTableToGo(L *lua.State, index int) any {
	abs := index
	if index < 0 {
		abs = L.Top() + index + 1
	}
	res := map[string]any{}
	isArray := true

	L.PushNil()
	for L.Next(abs) {
		var key string
		if L.TypeOf(-2) == lua.TypeNumber {
			n, _ := L.ToNumber(-2)
			key = strconv.FormatFloat(n, 'f', -1, 64)
		} else {
			isArray = false
			key, _ = L.ToString(-2)
		}
		res[key] = luaToGo(L, -1)
		L.Pop(1)
	}

	if !isArray || len(res) == 0 {
		return res
	}
	arr := make([]any, 0, len(res))
	for i := 1; i <= len(res); i++ {
		v, ok := res[strconv.Itoa(i)]
		if !ok {
			return res
		}
		arr = append(arr, v)
	}
	return arr
}
