package novelai

const (
	ModelV3 = "nai-diffusion-3"
	ModelV4 = "nai-diffusion-4-full"
)

var ModelList = []string{
	ModelV3,
	ModelV4,
}

const (
	ActionGenerate = "generate"
	ActionImg2Img  = "img2img"
)

const (
	TranslateNone    = "none"
	TranslateDefault = "default_translator"
	TranslateYD      = "translator_yd"
)

const DefaultURL = "https://image.novelai.net/ai/generate-image"

const (
	ZipContentType = "application/x-zip-compressed"
	ResultMimeType = "image/png"
)

const (
	defaultT2IInput = "octopus, best quality, amazing quality, very aesthetic, absurdres"
	defaultI2IInput = "marisa kirisame, best quality, amazing quality, very aesthetic, absurdres"

	defaultT2INegativePrompt = "NSFW, bad proportions, out of focus, username, text, bad anatomy, lowres, worstquality, watermark, cropped, bad body, deformed, mutated, disfigured, poorly drawn face, malformed hands, extra arms, extra limb, missing limb, too many fingers, extra legs, bad feet, missing fingers, fused fingers, acnes, floating limbs, disconnected limbs, long neck, long body, mutation, ugly, blurry, low quality, sketches, normal quality, monochrome, grayscale, signature, logo, jpeg artifacts, unfinished, displeasing, chromatic aberration, extra digits, artistic error, scan, abstract, photo, realism, screencap"
	defaultI2INegativePrompt = "nsfw, nude, nudity, lowres, bad anatomy, bad hands, text, error, missing fingers, extra digit, fewer digits, cropped, worst quality, low quality, signature, watermark, username, blurry"

	defaultV3UC = "nsfw, lowres, {bad}, error, fewer, extra, missing, worst quality, jpeg artifacts, bad quality, watermark, unfinished, displeasing, chromatic aberration, signature, extra digits, artistic error, username, scan, [abstract]"

	skipCfgAboveSigma = 19.343056794463642
)

const (
	DefaultAdditionalPrompt = "masterpiece, best quality, ultra-detailed, extremely detailed, best quality, best anatomy"
	DefaultNegativePrompt   = "owres, bad anatomy, bad hands, text, error, (missing fingers), extra digit, fewer digits, cropped, worst quality, low quality, signature, watermark, username, long neck, Humpbacked, bad crotch, bad crotch seam, fused crotch, fused seam, poorly drawn crotch, poorly drawn crotch seam, bad thigh gap, missing thigh gap, fused thigh gap, bad anatomy, short arm, (((missing arms))), missing thighs, missing calf, mutation, duplicate, more than 1 left hand, more than 1 right hand, deformed, (blurry), missing legs, extra arms, extra thighs, more than 2 thighs, extra calf, fused calf, extra legs, bad knee, extra knee, more than 2 legs"
	DefaultSteps            = 28
	DefaultStrengthMin      = 0.88
	DefaultStrengthMax      = 0.93
)
