// args.go — разбор однострочных аргументов команды report.
package bot

import (
	"errors"
	"strings"
)

// argsSeparator разделяет поля команды report.
const argsSeparator = "|"

// errBadArgs — аргументы не соответствуют формату.
var errBadArgs = errors.New("ожидается: заголовок | описание [| категория] [| приоритет]")

// ReportArgs — разобранные аргументы команды report.
// Пустые категория и приоритет — nil.
type ReportArgs struct {
	Title       string
	Description string
	Category    *string
	Priority    *string
}

// ParseReportArgs разбирает "title | description [| category] [| priority]".
// Длины и допустимость приоритета проверяет сервис отчётов.
func ParseReportArgs(args string) (ReportArgs, error) {
	parts := strings.Split(args, argsSeparator)
	if len(parts) < 2 || len(parts) > 4 {
		return ReportArgs{}, errBadArgs
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" || parts[1] == "" {
		return ReportArgs{}, errBadArgs
	}

	res := ReportArgs{Title: parts[0], Description: parts[1]}
	if len(parts) > 2 && parts[2] != "" {
		category := parts[2]
		res.Category = &category
	}
	if len(parts) > 3 && parts[3] != "" {
		priority := strings.ToLower(parts[3])
		res.Priority = &priority
	}
	return res, nil
}
