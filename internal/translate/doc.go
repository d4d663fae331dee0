// Package translate turns natural-language text into sign grammar.
//
// HTTPTranslator talks to a dedicated translation service; OpenAITranslator
// asks an OpenAI chat model for the gloss directly. Both report failures as
// services.UpstreamError so the API can pass the upstream status through.
package translate
