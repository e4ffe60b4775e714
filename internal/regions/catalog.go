package regions

// District pairs a 5-digit MOLIT region code with its administrative
// name. Codes are the first five digits of the 10-digit legal dong code.
type District struct {
	Code string
	Name string
}

// The 25 autonomous districts of Seoul. The transaction-price API is
// queried once per district per period.
var seoulDistricts = []District{
	{Code: "11110", Name: "종로구"},
	{Code: "11140", Name: "중구"},
	{Code: "11170", Name: "용산구"},
	{Code: "11200", Name: "성동구"},
	{Code: "11215", Name: "광진구"},
	{Code: "11230", Name: "동대문구"},
	{Code: "11260", Name: "중랑구"},
	{Code: "11290", Name: "성북구"},
	{Code: "11305", Name: "강북구"},
	{Code: "11320", Name: "도봉구"},
	{Code: "11350", Name: "노원구"},
	{Code: "11380", Name: "은평구"},
	{Code: "11410", Name: "서대문구"},
	{Code: "11440", Name: "마포구"},
	{Code: "11470", Name: "양천구"},
	{Code: "11500", Name: "강서구"},
	{Code: "11530", Name: "구로구"},
	{Code: "11545", Name: "금천구"},
	{Code: "11560", Name: "영등포구"},
	{Code: "11590", Name: "동작구"},
	{Code: "11620", Name: "관악구"},
	{Code: "11650", Name: "서초구"},
	{Code: "11680", Name: "강남구"},
	{Code: "11710", Name: "송파구"},
	{Code: "11740", Name: "강동구"},
}

// Seoul returns the district catalog in a stable iteration order.
func Seoul() []District {
	districts := make([]District, len(seoulDistricts))
	copy(districts, seoulDistricts)
	return districts
}

// NameByCode resolves a district code to its name.
func NameByCode(code string) (string, bool) {
	for _, d := range seoulDistricts {
		if d.Code == code {
			return d.Name, true
		}
	}
	return "", false
}
