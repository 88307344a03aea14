package novelai

import "math"

// Variant 请求模板：文生图/图生图 × v3/v4
type Variant int

const (
	TextToImageV3 Variant = iota
	ImageToImageV3
	TextToImageV4
	ImageToImageV4
)

func (v Variant) String() string {
	switch v {
	case TextToImageV3:
		return "text-to-image-v3"
	case ImageToImageV3:
		return "image-to-image-v3"
	case TextToImageV4:
		return "text-to-image-v4"
	case ImageToImageV4:
		return "image-to-image-v4"
	}
	return "unknown"
}

func (v Variant) IsV4() bool {
	return v == TextToImageV4 || v == ImageToImageV4
}

func (v Variant) IsImageToImage() bool {
	return v == ImageToImageV3 || v == ImageToImageV4
}

// SelectVariant 非 v4 的模型一律按 v3 处理
func SelectVariant(model string, hasImage bool) Variant {
	if model == ModelV4 {
		if hasImage {
			return ImageToImageV4
		}
		return TextToImageV4
	}
	if hasImage {
		return ImageToImageV3
	}
	return TextToImageV3
}

// NewRequest 每次调用都返回一份全新的模板，种子由 random 重新生成
func NewRequest(variant Variant, random func() float64) Request {
	var req Request
	switch variant {
	case TextToImageV3:
		req = Request{
			Input:  defaultT2IInput,
			Model:  ModelV3,
			Action: ActionGenerate,
			Parameters: Parameters{
				ParamsVersion:       ptr(1),
				Width:               1024,
				Height:              1024,
				Scale:               5,
				Sampler:             "k_euler",
				Steps:               28,
				NSamples:            1,
				UcPreset:            2,
				QualityToggle:       false,
				Sm:                  ptr(true),
				SmDyn:               ptr(true),
				DynamicThresholding: true,
				ControlnetStrength:  1,
				Legacy:              false,
				AddOriginalImage:    false,
				CfgRescale:          ptr(0.18),
				NoiseSchedule:       "native",
				SkipCfgAboveSigma:   ptr(skipCfgAboveSigma),
				LegacyV3Extend:      ptr(false),
				Seed:                seed(random, 1e6),
				NegativePrompt:      defaultT2INegativePrompt,

				ReferenceImageMultiple:                &[]string{},
				ReferenceInformationExtractedMultiple: &[]float64{},
				ReferenceStrengthMultiple:             &[]float64{},

				Prompt: defaultT2IInput,
				UC:     defaultV3UC,
			},
		}
	case ImageToImageV3:
		req = Request{
			Model:  ModelV3,
			Action: ActionImg2Img,
			Input:  defaultI2IInput,
			Parameters: Parameters{
				Width:               1024,
				Height:              1024,
				Scale:               6,
				Sampler:             "k_euler_ancestral",
				Steps:               28,
				Seed:                seed(random, 1e6),
				NSamples:            1,
				UcPreset:            0,
				QualityToggle:       true,
				NegativePrompt:      defaultI2INegativePrompt,
				AddOriginalImage:    false,
				ControlnetStrength:  0.6,
				DynamicThresholding: false,
				ExtraNoiseSeed:      ptr(seed(random, 1e9)),
				Legacy:              false,
				Noise:               ptr(0.0),
				Sm:                  ptr(false),
				SmDyn:               ptr(false),
				Strength:            ptr(Strength(0.58)),
			},
		}
	case TextToImageV4:
		req = Request{
			Input:  defaultT2IInput,
			Model:  ModelV4,
			Action: ActionGenerate,
			Parameters: Parameters{
				ParamsVersion:       ptr(1),
				Width:               1024,
				Height:              1024,
				Scale:               5,
				Sampler:             "k_euler",
				Steps:               28,
				NSamples:            1,
				UcPreset:            3,
				QualityToggle:       false,
				DynamicThresholding: true,
				ControlnetStrength:  1,
				Legacy:              false,
				AddOriginalImage:    false,
				CfgRescale:          ptr(0.18),
				NoiseSchedule:       "native",
				SkipCfgAboveSigma:   ptr(skipCfgAboveSigma),
				LegacyV3Extend:      ptr(false),
				Seed:                seed(random, 1e6),
				NegativePrompt:      defaultT2INegativePrompt,

				ReferenceImageMultiple:                &[]string{},
				ReferenceInformationExtractedMultiple: &[]float64{},
				ReferenceStrengthMultiple:             &[]float64{},

				UseCoords:        ptr(false),
				CharacterPrompts: &[]CharacterPrompt{},
			},
		}
	case ImageToImageV4:
		req = Request{
			Model:  ModelV4,
			Action: ActionImg2Img,
			Input:  defaultI2IInput,
			Parameters: Parameters{
				Width:               768,
				Height:              768,
				Scale:               6,
				Sampler:             "k_euler_ancestral",
				Steps:               28,
				Seed:                seed(random, 1e6),
				NSamples:            1,
				UcPreset:            0,
				QualityToggle:       true,
				NegativePrompt:      defaultI2INegativePrompt,
				AddOriginalImage:    true,
				ControlnetStrength:  0.1,
				DynamicThresholding: false,
				ExtraNoiseSeed:      ptr(seed(random, 1e9)),
				Legacy:              false,
				Noise:               ptr(0.1),
				Strength:            ptr(Strength(0.8)),
			},
		}
	}
	if variant.IsV4() {
		req.RebuildV4Captions()
	}
	return req
}

// RebuildV4Captions 根据当前 input 与 negative_prompt 重建 v4 结构化描述
func (r *Request) RebuildV4Captions() {
	r.Parameters.V4Prompt = &V4Prompt{
		Caption:   V4Caption{BaseCaption: r.Input, CharCaptions: []CharCaption{}},
		UseCoords: false,
		UseOrder:  true,
	}
	r.Parameters.V4NegativePrompt = &V4NegativePrompt{
		Caption: V4Caption{BaseCaption: r.Parameters.NegativePrompt, CharCaptions: []CharCaption{}},
	}
}

func seed(random func() float64, scale float64) int64 {
	return int64(math.Floor(random() * scale))
}

func ptr[T any](v T) *T {
	return &v
}
