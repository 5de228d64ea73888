package google

import "strings"

// ==================== Account ====================

type Account struct {
	Name        string `json:"name"` // accounts/{id}
	AccountName string `json:"accountName"`
	Type        string `json:"type"`
	Role        string `json:"role"`
}

type listAccountsResp struct {
	Accounts      []Account `json:"accounts"`
	NextPageToken string    `json:"nextPageToken"`
}

// ==================== Location ====================

type Location struct {
	Name              string         `json:"name"` // locations/{id}
	Title             string         `json:"title"`
	StoreCode         string         `json:"storeCode"`
	Metadata          LocationMeta   `json:"metadata"`
	Categories        *Categories    `json:"categories,omitempty"`
	StorefrontAddress *PostalAddress `json:"storefrontAddress,omitempty"`

	// AccountName 所属账号，由发现流程回填，非 Google 字段
	AccountName string `json:"accountName,omitempty"`
}

type LocationMeta struct {
	PlaceID      string `json:"placeId"`
	MapsURI      string `json:"mapsUri"`
	NewReviewURI string `json:"newReviewUri"`
}

type Categories struct {
	PrimaryCategory      *Category  `json:"primaryCategory,omitempty"`
	AdditionalCategories []Category `json:"additionalCategories,omitempty"`
}

type Category struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type PostalAddress struct {
	RegionCode         string   `json:"regionCode"`
	PostalCode         string   `json:"postalCode"`
	AdministrativeArea string   `json:"administrativeArea"`
	Locality           string   `json:"locality"`
	AddressLines       []string `json:"addressLines"`
}

// PrimaryCategoryName 主类目显示名
func (l *Location) PrimaryCategoryName() string {
	if l.Categories == nil || l.Categories.PrimaryCategory == nil {
		return ""
	}
	return l.Categories.PrimaryCategory.DisplayName
}

// CategoryNames 全部类目显示名，主类目在前
func (l *Location) CategoryNames() []string {
	names := []string{}
	if l.Categories == nil {
		return names
	}
	if l.Categories.PrimaryCategory != nil {
		names = append(names, l.Categories.PrimaryCategory.DisplayName)
	}
	for _, c := range l.Categories.AdditionalCategories {
		names = append(names, c.DisplayName)
	}
	return names
}

// FormattedAddress 单行地址
func (l *Location) FormattedAddress() string {
	a := l.StorefrontAddress
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.AddressLines)+3)
	for _, p := range append(append([]string{}, a.AddressLines...), a.Locality, a.AdministrativeArea, a.PostalCode) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type listLocationsResp struct {
	Locations     []Location `json:"locations"`
	NextPageToken string     `json:"nextPageToken"`
}

// ==================== Review ====================

type Review struct {
	Name        string       `json:"name"`
	ReviewID    string       `json:"reviewId"`
	Reviewer    Reviewer     `json:"reviewer"`
	StarRating  string       `json:"starRating"` // ONE..FIVE
	Comment     string       `json:"comment"`
	CreateTime  string       `json:"createTime"`
	UpdateTime  string       `json:"updateTime"`
	ReviewReply *ReviewReply `json:"reviewReply,omitempty"`
}

type Reviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
	IsAnonymous     bool   `json:"isAnonymous"`
}

type ReviewReply struct {
	Comment    string `json:"comment"`
	UpdateTime string `json:"updateTime"`
}

type listReviewsResp struct {
	Reviews          []Review `json:"reviews"`
	AverageRating    float64  `json:"averageRating"`
	TotalReviewCount int      `json:"totalReviewCount"`
	NextPageToken    string   `json:"nextPageToken"`
}
