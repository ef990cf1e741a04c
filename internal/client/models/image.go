package models

// Image is an inline content image stored independently of any article.
type Image struct {
	Record
	File string `json:"file"`
	Alt  string `json:"alt"`
}
