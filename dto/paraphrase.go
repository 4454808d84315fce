package dto

type ParaphraseRequest struct {
	Text string `json:"text" validate:"required,min=1,max=50000" example:"The quick brown fox jumps over the lazy dog."`
	Mode string `json:"mode" validate:"omitempty,oneof=standard fluency formal academic creative shorten expand" example:"standard"`
}

func (p ParaphraseRequest) Validate() error {
	return GetValidator().Struct(p)
}

type ParaphraseResponse struct {
	ParaphrasedText   string `json:"paraphrased_text" example:"A swift brown fox leaps over the idle dog."`
	OriginalLength    int    `json:"original_length" example:"44"`
	ParaphrasedLength int    `json:"paraphrased_length" example:"42"`
	Mode              string `json:"mode" example:"standard"`
	Cached            bool   `json:"cached" example:"false"`
}
