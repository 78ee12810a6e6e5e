package grid

// Content is what a cell shows. It is one of Text, Image or Empty.
type Content interface {
	isContent()
}

// Text is a literal cell value
type Text string

// Image is a picture loaded from URL. PixelSize 0 means fit to the cell.
type Image struct {
	URL       string
	PixelSize int
}

// Empty is a blank cell
type Empty struct{}

func (Text) isContent()  {}
func (Image) isContent() {}
func (Empty) isContent() {}

// image returns an Image for url, or Empty when url is blank
func image(url string, size int) Content {
	if url == "" {
		return Empty{}
	}
	return Image{URL: url, PixelSize: size}
}

// IsEmpty reports whether c shows nothing
func IsEmpty(c Content) bool {
	switch v := c.(type) {
	case nil, Empty:
		return true
	case Text:
		return v == ""
	case Image:
		return v.URL == ""
	default:
		return false
	}
}
