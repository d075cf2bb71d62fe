package assistant

// 内置规则表。顺序即优先级，先命中者生效：问候语排在大多数症状规则之后，
// 同时包含问候与症状的消息按症状处理。
var defaultRules = []Rule{
	{
		Name:        "vomiting",
		Terms:       []string{"рвота", "тошнота"},
		Category:    CategoryWarning,
		Response:    "Рвота может быть симптомом различных заболеваний. Рекомендую обратиться к ветеринару в течение 24 часов, особенно если рвота повторяется или сопровождается другими симптомами.",
		Suggestions: []string{"Записаться к ветеринару", "Проверить аппетит", "Наблюдать за поведением"},
	},
	{
		Name:        "diarrhea",
		Terms:       []string{"понос", "диарея"},
		Category:    CategoryWarning,
		Response:    "Диарея может быть вызвана неправильным питанием, инфекцией или паразитами. Обеспечьте питомцу доступ к воде и обратитесь к ветеринару.",
		Suggestions: []string{"Обеспечить обильное питье", "Проверить стул", "Записаться к ветеринару"},
	},
	{
		Name:        "cough",
		Terms:       []string{"кашель", "чихание"},
		Category:    CategoryInfo,
		Response:    "Кашель и чихание могут указывать на респираторные проблемы. Если симптомы не проходят в течение 2-3 дней, обратитесь к ветеринару.",
		Suggestions: []string{"Наблюдать за дыханием", "Проверить температуру", "Записаться к ветеринару"},
	},
	{
		Name:        "nutrition",
		Terms:       []string{"корм", "питание", "еда"},
		Category:    CategoryInfo,
		Response:    "Правильное питание важно для здоровья питомца. Рекомендую кормить качественным кормом, соответствующим возрасту и размеру питомца.",
		Suggestions: []string{"Выбрать подходящий корм", "Соблюдать режим питания", "Консультация с ветеринаром"},
	},
	{
		Name:        "vaccination",
		Terms:       []string{"прививк", "вакцин"},
		Category:    CategoryInfo,
		Response:    "Регулярная вакцинация защищает питомца от опасных заболеваний. График вакцинации зависит от возраста и вида питомца.",
		Suggestions: []string{"Проверить график прививок", "Записаться на вакцинацию", "Узнать о необходимых прививках"},
	},
	{
		Name:        "aggression",
		Terms:       []string{"агрессия", "агрессивн"},
		Category:    CategoryWarning,
		Response:    "Агрессивное поведение может иметь различные причины. Рекомендую проконсультироваться с ветеринаром или зоопсихологом.",
		Suggestions: []string{"Наблюдать за триггерами", "Консультация специалиста", "Создать спокойную обстановку"},
	},
	{
		Name:        "lethargy",
		Terms:       []string{"апатия", "вялость"},
		Category:    CategoryWarning,
		Response:    "Апатия и вялость могут быть симптомами заболевания. Если состояние не улучшается, обратитесь к ветеринару.",
		Suggestions: []string{"Проверить аппетит", "Измерить температуру", "Записаться к ветеринару"},
	},
	{
		Name:        "care",
		Terms:       []string{"здоровье", "уход"},
		Category:    CategoryInfo,
		Response:    "Для поддержания здоровья питомца важно: регулярные осмотры у ветеринара, правильное питание, физическая активность и гигиена.",
		Suggestions: []string{"Запланировать осмотр", "Проверить питание", "Увеличить активность"},
	},
	{
		Name:        "greeting",
		Terms:       []string{"привет", "здравствуй"},
		Category:    CategoryGreeting,
		Response:    "Привет! Я ваш ветеринарный ассистент. Могу помочь с вопросами о здоровье питомцев, питании, уходе и ветеринарных процедурах. Как я могу вам помочь?",
		Suggestions: []string{"Здоровье питомца", "Питание", "Вакцинация", "Поведение"},
	},
}

var defaultFallback = Rule{
	Name:        FallbackRuleName,
	Category:    CategoryInfo,
	Response:    "Спасибо за ваш вопрос! Для получения точной информации о здоровье вашего питомца рекомендую обратиться к ветеринару. Я могу помочь с общими советами по уходу.",
	Suggestions: []string{"Записаться к ветеринару", "Общие советы по уходу", "Проверить симптомы"},
}

// DefaultRules 返回内置规则表的副本。
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = r.clone()
	}
	return out
}

// DefaultFallback 返回未命中任何规则时使用的兜底回复。
func DefaultFallback() Rule {
	return defaultFallback.clone()
}
