package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото дороги
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User пользователь бота вместе с его живой сессией подсчёта
type User struct {
	ID      int64     // Telegram User ID
	ChatID  int64     // Telegram Chat ID
	State   UserState // Текущее состояние
	Source  string    // метка источника в журнале аудита
	Session Tally     // счётчик уникальных выбоин текущей сессии
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// StartSession сбрасывает счётчик и задаёт источник новой сессии
func (u *User) StartSession(source string) {
	u.Session.Reset()
	u.Source = source
	u.State = StateAwaitingPhoto
}
