package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/rag"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
)

// Asker answers questions and forgets the conversation on request.
type Asker interface {
	Ask(ctx context.Context, question string) (rag.Reply, error)
	ClearContext(ctx context.Context) error
}

// Plotter draws a chart for a loaded payload.
type Plotter interface {
	AutoChart(payload report.Payload, opts report.ChartOptions) (string, error)
}

const plotUsage = "Uso: /plot <caminho_do_arquivo> [o que plotar]. " +
	"Ex: /plot chat_outputs/dados/arquivo.csv diferenca do hp"

// ChatSession is the interactive terminal chat.
type ChatSession struct {
	asker   Asker
	plotter Plotter
	reader  *LineReader
	writer  io.Writer
}

// NewChatSession creates a session reading from r and writing to w.
func NewChatSession(asker Asker, plotter Plotter, r io.Reader, w io.Writer) *ChatSession {
	return &ChatSession{
		asker:   asker,
		plotter: plotter,
		reader:  NewLineReader(r),
		writer:  w,
	}
}

// Run reads questions and commands until "sair", end of input or ctx ends.
func (s *ChatSession) Run(ctx context.Context) error {
	s.println(FormatTitle("Chat interativo com a IA Pokémon"))
	s.println("Comandos especiais:")
	s.println("  /limpar - Limpa o histórico de conversas e dados estruturados")
	s.println("  /plot <caminho_do_arquivo> [o que plotar] - Gera um gráfico a partir de um CSV ou JSON")
	s.println("  sair - Encerra o chat")
	s.println("")

	for {
		s.print(FormatPrompt("Você"))
		line, err := s.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInputCancelled) {
			s.println("")
			s.println(FormatInfo("Encerrando o chat. Até logo!"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		command := strings.ToLower(line)
		switch {
		case command == "":
			continue
		case command == "sair" || command == "exit":
			s.println(FormatInfo("Encerrando o chat. Até logo!"))
			return nil
		case command == "/limpar":
			s.clear(ctx)
		case command == "/plot" || strings.HasPrefix(command, "/plot "):
			s.plot(line)
		case strings.HasPrefix(command, "/"):
			s.println(FormatWarning("Comando não reconhecido: " + line))
			s.println("Comandos disponíveis: /limpar, /plot, sair")
		default:
			s.ask(ctx, line)
		}
	}
}

func (s *ChatSession) ask(ctx context.Context, question string) {
	reply, err := s.asker.Ask(ctx, question)
	if err != nil {
		slog.Debug("Chat question failed", "error", err)
		msg := "Não foi possível gerar uma resposta."
		if errors.Is(err, rag.ErrUnavailable) {
			msg = "Chat indisponível. Configure GROQ_API_KEY ou OPENAI_API_KEY e execute o pipeline primeiro."
		}
		s.println(FormatError(common.UserMessage(err, msg)))
		return
	}

	s.println(RenderBox("Resposta", reply.Answer))
	for _, path := range reply.DataFiles {
		s.println(FormatInfo("Dados estruturados extraídos e salvos em: " + path))
	}
}

func (s *ChatSession) clear(ctx context.Context) {
	s.print(FormatPrompt("Tem certeza que deseja limpar todo o contexto? (sim/não)"))
	answer, err := s.reader.ReadLine(ctx)
	if err != nil || !Confirmed(answer) {
		s.println(FormatInfo("Operação cancelada."))
		return
	}

	if err := s.asker.ClearContext(ctx); err != nil {
		slog.Error("Failed to clear context", "error", err)
		s.println(FormatError("Erro ao limpar o contexto."))
		return
	}
	s.println(FormatSuccess("Contexto limpo! Histórico de conversas e dados estruturados foram removidos."))
}

func (s *ChatSession) plot(line string) {
	rest := strings.TrimSpace(line[len("/plot"):])
	path, instruction, _ := strings.Cut(rest, " ")
	if path == "" {
		s.println(FormatWarning(plotUsage))
		return
	}

	if _, err := os.Stat(path); err != nil {
		s.println(FormatError(fmt.Sprintf("Arquivo não encontrado em '%s'", path)))
		return
	}

	payload, err := report.LoadPayload(path)
	if errors.Is(err, report.ErrUnsupportedFile) {
		s.println(FormatError("Formato de arquivo não suportado. Use .csv ou .json"))
		return
	}
	if err != nil {
		slog.Debug("Failed to load plot data", "path", path, "error", err)
		s.println(FormatError("Não foi possível ler o arquivo."))
		return
	}

	chart, err := s.plotter.AutoChart(payload, report.ChartOptions{Instruction: strings.TrimSpace(instruction)})
	if err != nil {
		s.println(FormatInfo("Não foi possível gerar o gráfico. Verifique a especificação ou o arquivo."))
		return
	}
	s.println(FormatSuccess(ChartIcon + " Gráfico gerado e salvo em: " + chart))
}

// Confirmed reports whether answer is an affirmative reply.
func Confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "sim", "s", "yes", "y":
		return true
	default:
		return false
	}
}

func (s *ChatSession) print(text string) {
	if _, err := fmt.Fprint(s.writer, text); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

func (s *ChatSession) println(text string) {
	if _, err := fmt.Fprintln(s.writer, text); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
