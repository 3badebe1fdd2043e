package domain

// Record is the persisted description of one image, shaped for rendering a
// responsive picture element.
type Record struct {
	Name          string        `json:"name"`
	Width         int           `json:"width,omitempty"`
	Height        int           `json:"height,omitempty"`
	Fallback      FallbackImage `json:"fallback"`
	Sources       []Source      `json:"sources"`
	HQImage       string        `json:"hqimage,omitempty"`
	OriginalImage string        `json:"original_image,omitempty"`
	Camera        *Camera       `json:"exif,omitempty"`
}

// FallbackImage holds the attributes of the img element.
type FallbackImage struct {
	Src         string `json:"src"`
	Sizes       string `json:"sizes"`
	Srcset      string `json:"srcset"`
	Placeholder string `json:"placeholder"`
}

// Source holds the attributes of one source element.
type Source struct {
	Type        string `json:"type,omitempty"`
	Media       string `json:"media"`
	Sizes       string `json:"sizes"`
	Srcset      string `json:"srcset"`
	Placeholder string `json:"placeholder"`
}
