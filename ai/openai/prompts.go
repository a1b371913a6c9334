package openai

const descriptionSystemPrompt = "You are a helpful book information assistant."

// descriptionPromptTemplate constrains generated descriptions so they remain
// suitable as query text for semantic vector embeddings.
const descriptionPromptTemplate = `Given a book title, provide a concise English summary of the book.
Focus on:

- the core plot and main themes
- the emotional tone and character journeys
- the genre and what makes the book meaningful or distinctive

Write in a natural, human-friendly style, but keep the wording straightforward
so it can be used for semantic vector embeddings.
Limit the description to under 200 words.

If the exact book is not recognized, describe a closely related book with
similar themes, tone, and genre so the result remains relevant for
recommendation purposes.

Output only the description. No extra text.

Book Title: %s`
