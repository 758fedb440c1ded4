package quiz

// Shipped locale strings.
const (
	MsgUnavailable  = "Тест деректері қолжетімді емес немесе жарамсыз."
	MsgSubmitting   = "Жауаптар тексерілуде..."
	MsgSubmitFailed = "Тест жауаптарын жіберу кезінде қате орын алды. Қайталап көріңіз."
	MsgPassed       = "Құттықтаймыз! Сіз тесттен өттіңіз."
	MsgFailed       = "Өкінішке орай, сіз тесттен өте алмадыңыз."
	MsgNoAnswer     = "Жауап берілмеді"
)
