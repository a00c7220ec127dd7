package core

// # Error Codes Reference
//
// Technical errors are mapped to user-friendly messages with a code support
// staff can look up. Messages are in Russian because the people uploading
// the files are.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large", "request body too large"
//	FILE002 - Unsupported format        Patterns: "unsupported file format"
//	FILE003 - Encoding error            Patterns: "encoding error"
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE005 - Empty file                Patterns: "empty file"
//
// # Sheet Errors (SHEET001-SHEET099)
//
//	SHEET001 - Workbook unreadable      Patterns: "open workbook"
//	SHEET002 - No sheets                Patterns: "no sheets"
//	SHEET003 - Invalid CSV              Patterns: "invalid csv"
//
// # Workspace Errors (WS001-WS099)
//
//	WS001 - Not ready                   Patterns: "both files are required"
//	WS002 - Session expired             Patterns: "workspace not found"
//	WS003 - Slot busy                   Patterns: "slot is busy"
//	WS004 - Capacity                    Patterns: "workspace limit"
//	WS005 - Unknown format              Patterns: "unknown format"
//	WS006 - No result                   Patterns: "no comparison result"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy                Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled          Patterns: "context canceled"
//	UPL005 - Request timeout            Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused          Patterns: "connection refused"
//	DB006 - Timeout                     Patterns: "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited              Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Файл превышает допустимый размер",
			Action:  "Уменьшите файл или загрузите только первый лист",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Файл превышает допустимый размер",
			Action:  "Уменьшите файл или загрузите только первый лист",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Формат файла не поддерживается",
			Action:  "Сохраните файл как .xlsx, .xls или .csv",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "Файл содержит недопустимые символы",
			Action:  "Сохраните файл в кодировке UTF-8 или Windows-1251",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Файл не выбран",
			Action:  "Выберите файл .xlsx или .csv",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "Загруженный файл пуст",
			Action:  "Проверьте, что выгрузка содержит строки",
			Code:    "FILE005",
		},
	},

	// Sheet errors
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "Не удалось прочитать книгу Excel",
			Action:  "Откройте файл в Excel и сохраните его заново как .xlsx",
			Code:    "SHEET001",
		},
	},
	{
		pattern: "no sheets",
		msg: UserMessage{
			Message: "В книге нет ни одного листа",
			Action:  "Проверьте, что выгрузка не пустая",
			Code:    "SHEET002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "Файл не является корректным CSV",
			Action:  "Проверьте разделители и кавычки",
			Code:    "SHEET003",
		},
	},

	// Workspace errors
	{
		pattern: "both files are required",
		msg: UserMessage{
			Message: "Пожалуйста, выберите оба файла",
			Action:  "Загрузите выгрузку из 1С и файл дисконтных карт",
			Code:    "WS001",
		},
	},
	{
		pattern: "workspace not found",
		msg: UserMessage{
			Message: "Сессия сравнения не найдена",
			Action:  "Сессия могла устареть. Загрузите файлы заново",
			Code:    "WS002",
		},
	},
	{
		pattern: "slot is busy",
		msg: UserMessage{
			Message: "Файл ещё обрабатывается",
			Action:  "Дождитесь окончания обработки",
			Code:    "WS003",
		},
	},
	{
		pattern: "workspace limit",
		msg: UserMessage{
			Message: "Слишком много активных сессий",
			Action:  "Попробуйте позже",
			Code:    "WS004",
		},
	},
	{
		pattern: "unknown format",
		msg: UserMessage{
			Message: "Неизвестный тип файла",
			Action:  "Используйте staff или clients",
			Code:    "WS005",
		},
	},
	{
		pattern: "no comparison result",
		msg: UserMessage{
			Message: "Сравнение ещё не выполнено",
			Action:  "Нажмите «Сравнить» и повторите выгрузку",
			Code:    "WS006",
		},
	},

	// Upload errors
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "Сервер занят обработкой других файлов",
			Action:  "Подождите немного и повторите попытку",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Запрос был отменён",
			Action:  "Повторите попытку",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Превышено время ожидания",
			Action:  "Попробуйте файл меньшего размера",
			Code:    "UPL005",
		},
	},

	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Не удалось подключиться к базе данных",
			Action:  "Повторите попытку через несколько минут",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Превышено время ожидания",
			Action:  "Повторите попытку позже",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Слишком много запросов",
			Action:  "Подождите минуту и повторите попытку",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "Произошла непредвиденная ошибка",
	Action:  "Повторите попытку или обратитесь в поддержку",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
