package properties

import "os"

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

func StacAPIURL() string {
	if url := os.Getenv("STAC_API_URL"); url != "" {
		return url
	}
	return "https://earth-search.aws.element84.com/v1"
}

func StacCollection() string {
	if collection := os.Getenv("STAC_COLLECTION"); collection != "" {
		return collection
	}
	return "sentinel-2-l2a"
}

func StacClientID() string {
	return os.Getenv("STAC_CLIENT_ID")
}

func StacClientSecret() string {
	return os.Getenv("STAC_CLIENT_SECRET")
}

func StacTokenURL() string {
	return os.Getenv("STAC_TOKEN_URL")
}

type Color struct {
	R, G, B uint8
}

// ColorMap drives the PNG rendering of change masks.
var ColorMap = map[string]Color{
	"newly-flooded": {30, 100, 220},
	"unchanged":     {200, 200, 200},
	"invalid":       {0, 0, 0},
}
