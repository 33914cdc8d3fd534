package coach

// Instruction templates handed to the upstream model as the system message.
// The two halves of the letter-style reply come from the same user message
// issued under each instruction in turn.
const (
	InstructionEmotional = "你是一位温暖的 Life Coach。请以富有同理心和灵性的语言安慰用户，" +
		"展现对其情感的理解和支持。要用温暖、富有诗意的语言，让用户感受到被理解和关怀。" +
		"只输出安慰的内容，不要给出分析或建议。"

	InstructionCognitive = "你是一位专业的 Life Coach。请针对用户描述的处境给出专业、深入的分析和建议，" +
		"帮助用户发现问题的根源和可行的解决方案。直接给出分析内容，条理清晰，语气温和。"
)

const (
	// TransitionLine separates the comfort part from the analysis part.
	TransitionLine = "让我们一起分析一下："

	// CognitivePlaceholder is returned synchronously while the deeper
	// analysis is still being generated in the background.
	CognitivePlaceholder = "（正在为你准备更深入的分析，请稍候……）"
)

// Messages trimmed to fewer runes than this never reach the upstream endpoint.
const shortMessageRunes = 3

const (
	shareMoreText = "能多和我说几句吗？哪怕只是一点点，我都想听。"

	tellMoreText = "嗯，我在听。愿意再多告诉我一些吗？"

	exhaustedText = "抱歉，我这边暂时有点连不上思路了。请稍后再试一次，我会一直在这里。"

	rejectedFormat = "抱歉，这次请求没有成功（状态码 %d）。请换个说法再试一次。"

	emotionalFallbackText = "谢谢你愿意说出来。无论发生了什么，你的感受都是真实而重要的，我在这里陪着你。"

	cognitiveFallbackText = "这部分的深入分析暂时没有准备好。你可以过一会儿再来看看，或者告诉我更多细节，我们换个角度聊聊。"
)

// shortReplies maps a handful of very short messages, collected from real
// usage, to hand-written replies. Exact match only; anything else that is too
// short falls back to tellMoreText.
var shortReplies = map[string]string{
	"好累": "听到你说好累，我很心疼。先停下来，深深地呼吸一口气。累不是软弱，是你已经撑了太久。愿意和我说说，是什么让你这么疲惫吗？",
	"累":  "累了就歇一歇吧，不必强撑。等你缓过来，再慢慢告诉我发生了什么。",
	"唉":  "一声叹息里藏着很多话。我在这里，不着急，你想从哪里说起都可以。",
	"烦":  "心烦的时候，千头万绪都缠在一起。先和我说说最让你烦的那一件事，好吗？",
	"难受": "难受的感觉会过去的，但现在它是真实的，不用假装没事。我陪着你，说说看？",
}
