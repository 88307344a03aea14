package novelai

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gouqi/novelai-bot/common/image"
	"github.com/gouqi/novelai-bot/common/logger"
)

// Override 显式的可选覆盖值
type Override[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Override[T] {
	return Override[T]{value: v, set: true}
}

func None[T any]() Override[T] {
	return Override[T]{}
}

func (o Override[T]) Get() (T, bool) {
	return o.value, o.set
}

type BuildInput struct {
	Prompt   string
	Image    *image.Image
	Strength Override[float64]
}

// Overlay 每次请求覆盖到模板上的字段
type Overlay struct {
	Input          string
	NegativePrompt string
	Steps          int
	Strength       Strength
	Image          string
}

func (r *Request) Apply(o Overlay) {
	r.Input = o.Input
	r.Parameters.NegativePrompt = o.NegativePrompt
	r.Parameters.Steps = o.Steps
	strength := o.Strength
	r.Parameters.Strength = &strength
	if r.Action == ActionImg2Img {
		r.Parameters.Image = o.Image
	}
	if r.Parameters.V4Prompt != nil {
		r.RebuildV4Captions()
	}
}

type Builder struct {
	Random func() float64
}

func NewBuilder() *Builder {
	return &Builder{Random: rand.Float64}
}

func (b *Builder) random() float64 {
	if b == nil || b.Random == nil {
		return rand.Float64()
	}
	return b.Random()
}

func (b *Builder) Build(ctx context.Context, settings Settings, in BuildInput) *Request {
	variant := SelectVariant(settings.Model, in.Image != nil)
	req := NewRequest(variant, b.random)

	overlay := Overlay{
		Input:          in.Prompt + "," + settings.AdditionalPrompt,
		NegativePrompt: settings.NegativePrompt,
		Steps:          settings.Steps,
		Strength:       Strength(b.RandomStrength(settings.Strength)),
	}
	if override, ok := in.Strength.Get(); ok {
		overlay.Strength = Strength(override)
	}
	if in.Image != nil {
		overlay.Image = in.Image.Base64
	}
	req.Apply(overlay)

	logger.Info(ctx, "strength: "+formatStrength(overlay.Strength))
	return &req
}

// RandomStrength 在 [min,max] 内均匀取值并保留三位小数
func (b *Builder) RandomStrength(bounds [2]float64) float64 {
	strength := bounds[0] + b.random()*(bounds[1]-bounds[0])
	return math.Round(strength*1000) / 1000
}

// ParseStrength 宽松解析：取最长的合法浮点数前缀，没有则返回 NaN，不做范围校验
func ParseStrength(raw string) float64 {
	s := strings.TrimSpace(raw)
	for end := len(s); end > 0; end-- {
		candidate := s[:end]
		if !looksNumeric(candidate) {
			continue
		}
		if f, err := strconv.ParseFloat(candidate, 64); err == nil {
			return f
		}
	}
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1)
	}
	return math.NaN()
}

// strconv 还接受 0x、下划线、inf、nan 等写法，这里只放行十进制
func looksNumeric(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '+' || r == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case (r == 'e' || r == 'E') && i > 0:
		default:
			return false
		}
	}
	return true
}

func formatStrength(s Strength) string {
	f := float64(s)
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
