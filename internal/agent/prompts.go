package agent

// System prompts.
const (
	RegularPrompt = "You are a friendly assistant. Keep your answers concise and helpful, and format text as markdown."

	DashboardPrompt = "You are a professional assistant. Do not generate any text during the whole process; only call tools."
)

const titlePrompt = `
- You will generate a short title based on the first message a user begins a conversation with
- Ensure it is not more than 80 characters long
- The title should be a summary of the user's message
- Do not use quotes or colons`

const needsPrompt = `Classify the intent of the conversation. Reply with one JSON object and nothing else:
{"isCreateDashboard": boolean, "isAnalyze": boolean}
- isCreateDashboard: the user wants a dashboard generated
- isAnalyze: the user wants data analysed`

const describePrompt = `You are a professional assistant. Generate a title (at most 10 words) and a description
(at most 30 words) for a dashboard built from the analysis results below. Reply with one JSON object
and nothing else: {"title": string, "description": string}

%s`

// SystemPrompt picks the prompt for the detected intent.
func SystemPrompt(n Needs) string {
	if n.IsCreateDashboard {
		return DashboardPrompt
	}
	return RegularPrompt
}
