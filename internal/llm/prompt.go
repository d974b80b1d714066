package llm

import "strings"

const instructions = "Responda sempre em português. Use o contexto de conversas anteriores e dados para dar respostas precisas. " +
	"Se a pergunta se referir a análises anteriores, mencione isso. " +
	"Para listas, contagens ou análises, retorne os dados em formato estruturado (tabelas markdown ou JSON). " +
	"Se não houver dados, diga explicitamente."

// buildPrompt joins the fixed instructions, the context and the question.
func buildPrompt(question, context string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if strings.TrimSpace(context) != "" {
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("Pergunta: ")
	b.WriteString(question)
	b.WriteString("\nResposta:")
	return b.String()
}
