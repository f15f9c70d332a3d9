// Package llm абстрагирует провайдеров языковых моделей. Классификатор
// записей и недельный дайджест работают через интерфейс Client, не зная,
// какой провайдер выбран в конфигурации.
package llm

import "context"

// Message — одна реплика диалога в нейтральном виде; роль переводится
// в формат конкретного провайдера внутри его клиента.
type Message struct {
	Role    string
	Content string
}

// Response содержит ответ модели и счётчики токенов для логирования.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
