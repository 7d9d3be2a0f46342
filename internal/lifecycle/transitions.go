package lifecycle

// Transition описывает переход из одного статуса в другой
type Transition struct {
	From Status
	To   Status
}

// validTransitions таблица всех разрешённых переходов.
// Любой переход вне таблицы отклоняется в CanTransition -
// единственной точке проверки легальности.
var validTransitions = map[Transition]bool{
	{StatusPending, StatusScheduled}: true, // Выбран один из предложенных вариантов времени
	{StatusPending, StatusRejected}:  true, // Заявка отклонена

	{StatusScheduled, StatusRescheduleRequested}:   true, // Запрошен перенос
	{StatusScheduled, StatusCancellationRequested}: true, // Преподаватель запросил отмену
	{StatusScheduled, StatusCancelled}:             true, // Отменено напрямую
	{StatusScheduled, StatusCompleted}:             true, // Занятие прошло
	{StatusScheduled, StatusNoShow}:                true, // Никто не пришёл

	{StatusRescheduled, StatusRescheduleRequested}:   true,
	{StatusRescheduled, StatusCancellationRequested}: true,
	{StatusRescheduled, StatusCancelled}:             true,
	{StatusRescheduled, StatusCompleted}:             true,
	{StatusRescheduled, StatusNoShow}:                true,

	{StatusRescheduleRequested, StatusRescheduled}: true, // Перенос одобрен
	{StatusRescheduleRequested, StatusNoShow}:      true,

	{StatusCancellationRequested, StatusCancelled}: true, // Отмена подтверждена
	{StatusCancellationRequested, StatusNoShow}:    true,

	{StatusPending, StatusNoShow}: true, // Заявка так и не была рассмотрена к моменту начала
}

// CanTransition проверяет разрешён ли переход from -> to
func CanTransition(from, to Status) bool {
	return validTransitions[Transition{from, to}]
}

// TransitionsFrom возвращает все статусы достижимые из указанного
func TransitionsFrom(from Status) []Status {
	var targets []Status
	for t := range validTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	return targets
}
