package insight

// Prompt templates for the extraction and enrichment calls. Placeholders in
// {braces} are substituted before the call.

const extractSystemPrompt = "You are an expert eCommerce and DTC podcast analyst. Follow the instructions exactly."

const extractUserPrompt = `Analyze the podcast transcript below and extract every distinct insight into the
following categories:

Frameworks and exercises
Points of view and perspectives
Business ideas
Stories and anecdotes
Quotes
Products

Output format, one section per category that has insights:

Category name:
* Title: One-sentence description
* "Exact quote" – Person who said it (Quotes category only)

Separate category sections with a line containing only ---.
If a category has no insights, write (none) for it.
Do not invent content that is not in the transcript.

Transcript:
{transcript}`

const titleSystemPrompt = "Output only the title in <title>...</title>. No other text."

const titleUserPrompt = `Write a short, punchy title (under 10 words) for this podcast insight:

{insight}`

const timestampSystemPrompt = "Output only <start_time>HH:MM:SS</start_time> and <end_time>HH:MM:SS</end_time>. No other text."

const timestampUserPrompt = `Below is a timestamped podcast transcript and one insight extracted from it.
Find where the insight is discussed and return the start and end timestamps.

Transcript:
{transcript}

Insight:
{insight}`

const frameworkSystemPrompt = "Output only the framework markdown inside <FrameWork>...</FrameWork>. No other text."

const frameworkUserPrompt = `Write a practical markdown document explaining the framework "{topic}" as
discussed in this transcript excerpt. Include the steps, when to apply it, and
any concrete numbers or examples the speakers give.

Transcript excerpt:
{raw_transcript}`
