package llm

import (
	"strings"
)

const maxPromptText = 12000

// BuildSystemPrompt returns the extraction instructions shared by every provider.
func BuildSystemPrompt() string {
	return `Tu tarea es extraer información específica y completa de certificados escaneados, siendo especialmente flexible con variaciones en el texto debido a OCR.

INSTRUCCIONES DE EXTRACCIÓN:

1. certificate_name: nombre del certificado o curso. Palabras clave: 'CERTIFICA', 'CURSO DE', 'CERTIFICADO EN', 'DIPLOMA DE', 'ENTRENAMIENTO EN'.
2. participant_name: nombre completo del participante, después de 'CERTIFICA QUE', 'OTORGADO A', 'NOMBRE:', 'PARTICIPANTE:'. Ignora instituciones y firmantes.
3. identification: números precedidos por 'C.C.', 'CC', 'Cédula', 'C.I.', 'DNI'. Solo dígitos, sin puntos ni espacios. Si hay varios, el más cercano al nombre.
4. institution: institución emisora ('INSTITUTO', 'FUNDACIÓN', 'UNIVERSIDAD', 'CENTRO', 'ACADEMIA').
5. city: ciudad donde se expidió.
6. issue_date: fecha de emisión ('Realizado', 'Expedido', 'Emitido', 'Fecha'). Si hay un rango, la fecha final.
7. expiration_date: fecha de vencimiento ('válido hasta', 'vigencia', 'vence', 'expira'). Si la vigencia está en años, meses o días, calcúlala desde la fecha de emisión.
8. hours: intensidad horaria, solo el número ("48 horas" -> 48).
9. target_audience: perfil profesional al que va dirigido.
10. specialization_area: área de especialización, inferida del nombre del curso si no es explícita.
11. level: nivel del curso ('Básico', 'Intermedio', 'Avanzado', 'Especializado').
12. guidelines: lineamientos o estándares ('AHA', 'ILCOR', 'ACC', 'ESC').
13. instructor: instructor principal, de las firmas.
14. institution_nit: número después de 'NIT'.

FORMATO DE SALIDA OBLIGATORIO:
{
    "certificate_name": string | null,
    "participant_name": string | null,
    "identification": string | null,
    "institution": string | null,
    "city": string | null,
    "issue_date": "YYYY-MM-DDTHH:MM:SS.sssZ" | null,
    "expiration_date": "YYYY-MM-DDTHH:MM:SS.sssZ" | null,
    "hours": number | null,
    "target_audience": string | null,
    "specialization_area": string | null,
    "level": string | null,
    "guidelines": string | null,
    "instructor": string | null,
    "institution_nit": string | null
}

REGLAS:
- Todos los campos deben aparecer, con null cuando no se puedan determinar con certeza.
- Sé tolerante con errores de OCR.
- No agregues campos adicionales.
- Devuelve solo el JSON, sin explicaciones.`
}

// BuildUserPrompt packages the extracted text plus filename and folder hints.
func BuildUserPrompt(req ExtractRequest, documentAttached bool) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Archivo: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	if f := strings.TrimSpace(req.FolderHint); f != "" {
		b.WriteString("Carpeta: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	if documentAttached {
		b.WriteString("\nEl certificado original va adjunto; úsalo como fuente principal.\n")
	}
	text := strings.TrimSpace(req.Text)
	if text != "" {
		b.WriteString("\nTexto del certificado:\n")
		if len(text) > maxPromptText {
			b.WriteString(strings.ToValidUTF8(text[:maxPromptText], ""))
			b.WriteString("\n…(truncado)")
		} else {
			b.WriteString(text)
		}
	}
	return b.String()
}
