package service

import "errors"

var (
	// ErrContinueDisabled — условие перехода текущего шага не выполнено.
	ErrContinueDisabled = errors.New("continue is not available at this step")
	// ErrBusy — предыдущее действие мастера ещё выполняется.
	ErrBusy = errors.New("another action is in progress")
	// ErrFlowClosed — мастер закрыт (отправлен или отменён).
	ErrFlowClosed = errors.New("wish creation flow is closed")
	// ErrWrongStep — действие недоступно на текущем шаге.
	ErrWrongStep = errors.New("action is not available at this step")
	// ErrNoValidFiles — все выбранные файлы отклонены по размеру.
	ErrNoValidFiles = errors.New("no valid files were selected")
	// ErrUploadFailed — ни один файл пачки не загрузился.
	ErrUploadFailed = errors.New("upload failed")
	// ErrUnknownImage — выбран URL не из найденных кандидатов.
	ErrUnknownImage = errors.New("image is not among the scraped candidates")

	// ErrNoCopiedWish — у wish в текущем списке нет copy_id, удалять с доски нечего.
	ErrNoCopiedWish = errors.New("no copied wish id")
	// ErrInFlight — такая же мутация для того же ключа ещё не завершилась.
	ErrInFlight = errors.New("same mutation is already in flight")
)
