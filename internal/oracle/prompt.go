package oracle

// systemPrompt instructs the model in the same language as the corpus it
// corrects. The reply contract matches Correction's JSON shape.
const systemPrompt = `Tarea: Corregí ortografía, mayúsculas/minúsculas, espacios y signos de puntuación de cada texto SIN perder información ni resumir. No agregues contenido ni cambies el significado. Devolvé SOLO JSON válido: una lista [{"id": int, "corrected_text": string}] con una entrada por cada elemento recibido.`
