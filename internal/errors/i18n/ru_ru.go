package i18n

var ruRUMessages = map[Code]string{
	CodeUnknown:                "Произошла непредвиденная ошибка",
	CodeUnauthenticated:        "Требуется аутентификация",
	CodeUnauthorized:           "Нет доступа к каталогу этой организации",
	CodeNotFound:               "Запись не найдена",
	CodeParentNotFound:         "Родительская запись не найдена",
	CodeFieldRequired:          "Поле {{.Field}} обязательно",
	CodeFieldInvalid:           "Недопустимое значение поля {{.Field}}",
	CodeChoiceInvalid:          "Значение {{.Value}} недопустимо для поля {{.Field}}",
	CodePayloadInvalid:         "Некорректное тело запроса",
	CodeProcessDataMissing:     "У процесса нет данных процесса для обновления",
	CodeSearchFilterInvalid:    "Некорректное выражение фильтра",
	CodeUnknownEntityKind:      "Неизвестный тип записи каталога",
	CodeRelatedProcessNotFound: "Связанный процесс не найден",
	CodeIdentifierConflict:     "Идентификатор уже занят",
	CodeIdentifierExhausted:    "Не удалось выделить уникальный идентификатор, повторите попытку",
}
