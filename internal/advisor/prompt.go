package advisor

// maxQuipRunes bounds the quip so the composed tweet stays well under
// the platform limit.
const maxQuipRunes = 60

const quipPersona = `You write a single short remark (one sentence, under 60 characters, no hashtags, no emoji) reacting to a Bitcoin market summary. Be wry, never give advice, never invent numbers. Reply with the remark only.`
