// Package language normalizes language codes for transcription. Whisper
// takes ISO 639-1 codes, while probed file tags and user input arrive as
// 3-letter codes, full words, or BCP 47 tags; everything funnels through
// here so the rest of the system only sees 2-letter codes.
package language
