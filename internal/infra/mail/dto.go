package mail

type PublishedEmailData struct {
	ProductName string
	ProductID   string
	Actor       string
	PublishedAt string
	ConsoleURL  string
}
