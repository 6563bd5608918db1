package bot

// User-facing texts. Kept in one place so handlers stay readable.
const (
	welcomeText = "Привет! Я бот компании.\nВыбери нужный раздел на клавиатуре."

	aboutText = "🧾 *О нас*\n\n" +
		"Мы создаём телеграм-ботов и автоматизируем бизнес-процессы.\n" +
		"Помогаем компаниям экономить время и увеличивать продажи."

	casesText = "📌 *Кейсы*\n\n" +
		"1. Бот для поддержки клиентов — сократил нагрузку на операторов на 40%.\n" +
		"2. Бот для заявок в отдел продаж — ускорил обработку лидов в 2 раза.\n" +
		"3. Внутренний бот-комбайн — автоматизировал рутинные задачи в команде.\n\n" +
		"💡 *Хотите получить наш продукт?*\n\n" +
		"Это очень просто! Оставьте заявку, указав ваш номер телефона, " +
		"и мы свяжемся с вами в ближайшее время."

	phonePromptText = "Пожалуйста, отправьте ваш номер телефона для связи.\n" +
		"Вы можете нажать кнопку ниже или ввести номер вручную."

	statsDeniedText = "Эта функция доступна только админу."

	thankYouText = "✅ Спасибо за ваше обращение!\n\n" +
		"Мы получили вашу заявку и свяжемся с вами в ближайшее время."

	menuAfterContactText = "Выберите нужный раздел на клавиатуре."
	menuAfterPhoneText   = "Выберите нужный раздел:"

	didNotUnderstandText = "Я тебя не понял. Пожалуйста, выбери одну из кнопок: «О нас» или «Кейсы»."

	genericRetryText = "Сейчас не удалось получить ответ. Попробуйте позже или выберите кнопку: «О нас» или «Кейсы»."
)

// Markdown templates for the stats views and the admin lead notification.
const (
	allTimeStatsTemplate = "📊 *Статистика бота*\n\n" +
		"Всего пользователей: *%d*\n" +
		"Нажатий кнопки «О нас»: *%d*\n" +
		"Нажатий кнопки «Кейсы»: *%d*\n" +
		"Всего сообщений: *%d*"

	windowStatsTemplate = "📊 *Статистика за последние 30 дней*\n\n" +
		"Пользователей взаимодействовало: *%d*\n" +
		"Нажатий «О нас»: *%d*\n" +
		"Нажатий «Кейсы»: *%d*\n" +
		"Всего сообщений: *%d*"

	leadNotificationTemplate = "🔔 *Новая заявка*\n\n" +
		"Пользователь оставил заявку на получение продукта.\n\n" +
		"👤 *Информация о пользователе:*\n" +
		"ID: `%d`\n" +
		"Имя: %s\n" +
		"Фамилия: %s\n" +
		"Username: @%s\n\n" +
		"📞 *Телефон:* `%s`\n\n" +
		"⏰ Время заявки: %s\n\n" +
		"Пожалуйста, свяжитесь с клиентом как можно скорее!"
)
