package novelai

import (
	"encoding/json"
	"math"
)

type Request struct {
	Input      string     `json:"input"`
	Model      string     `json:"model"`
	Action     string     `json:"action"`
	Parameters Parameters `json:"parameters"`
}

// Parameters 覆盖四种预设的全部字段，预设中没有的字段为 nil 并在序列化时省略
type Parameters struct {
	ParamsVersion       *int      `json:"params_version,omitempty"`
	Width               int       `json:"width"`
	Height              int       `json:"height"`
	Scale               float64   `json:"scale"`
	Sampler             string    `json:"sampler"`
	Steps               int       `json:"steps"`
	Seed                int64     `json:"seed"`
	NSamples            int       `json:"n_samples"`
	UcPreset            int       `json:"ucPreset"`
	QualityToggle       bool      `json:"qualityToggle"`
	Sm                  *bool     `json:"sm,omitempty"`
	SmDyn               *bool     `json:"sm_dyn,omitempty"`
	DynamicThresholding bool      `json:"dynamic_thresholding"`
	ControlnetStrength  float64   `json:"controlnet_strength"`
	Legacy              bool      `json:"legacy"`
	AddOriginalImage    bool      `json:"add_original_image"`
	CfgRescale          *float64  `json:"cfg_rescale,omitempty"`
	NoiseSchedule       string    `json:"noise_schedule,omitempty"`
	SkipCfgAboveSigma   *float64  `json:"skip_cfg_above_sigma,omitempty"`
	LegacyV3Extend      *bool     `json:"legacy_v3_extend,omitempty"`
	ExtraNoiseSeed      *int64    `json:"extra_noise_seed,omitempty"`
	Noise               *float64  `json:"noise,omitempty"`
	Strength            *Strength `json:"strength,omitempty"`
	NegativePrompt      string    `json:"negative_prompt"`

	ReferenceImageMultiple                *[]string  `json:"reference_image_multiple,omitempty"`
	ReferenceInformationExtractedMultiple *[]float64 `json:"reference_information_extracted_multiple,omitempty"`
	ReferenceStrengthMultiple             *[]float64 `json:"reference_strength_multiple,omitempty"`

	Prompt string `json:"prompt,omitempty"`
	UC     string `json:"uc,omitempty"`

	UseCoords        *bool              `json:"use_coords,omitempty"`
	CharacterPrompts *[]CharacterPrompt `json:"characterPrompts,omitempty"`
	V4Prompt         *V4Prompt          `json:"v4_prompt,omitempty"`
	V4NegativePrompt *V4NegativePrompt  `json:"v4_negative_prompt,omitempty"`

	Image string `json:"image,omitempty"`
}

type V4Caption struct {
	BaseCaption  string        `json:"base_caption"`
	CharCaptions []CharCaption `json:"char_captions"`
}

type CharCaption struct {
	CharCaption string   `json:"char_caption"`
	Centers     []Center `json:"centers"`
}

type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CharacterPrompt struct {
	Prompt  string `json:"prompt"`
	UC      string `json:"uc"`
	Center  Center `json:"center"`
	Enabled bool   `json:"enabled"`
}

type V4Prompt struct {
	Caption   V4Caption `json:"caption"`
	UseCoords bool      `json:"use_coords"`
	UseOrder  bool      `json:"use_order"`
}

type V4NegativePrompt struct {
	Caption V4Caption `json:"caption"`
}

// Strength 非数字的覆盖值会解析为 NaN，序列化为 null
type Strength float64

func (s Strength) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (s Strength) Float64() float64 {
	return float64(s)
}
