package server

// 物品与资源种类
const (
	ItemWool       = "wool"
	ItemStoneSword = "stone_sword"
	ItemIronSword  = "iron_sword"
	ItemShears     = "shears"
	ItemEnderPearl = "ender_pearl"

	ResourceIron    = "iron"
	ResourceGold    = "gold"
	ResourceDiamond = "diamond"
)

// ShopItem 商店条目：用 Price 个 Currency 换取 Amount 个 Grants
type ShopItem struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Price    int    `json:"price"`
	Grants   string `json:"grants"`
	Amount   int    `json:"amount"`
}

// DefaultCatalog 默认商店
func DefaultCatalog() map[string]ShopItem {
	items := []ShopItem{
		{ID: ItemWool, Currency: ResourceIron, Price: 4, Grants: ItemWool, Amount: 16},
		{ID: ItemStoneSword, Currency: ResourceIron, Price: 10, Grants: ItemStoneSword, Amount: 1},
		{ID: ItemShears, Currency: ResourceIron, Price: 20, Grants: ItemShears, Amount: 1},
		{ID: ItemIronSword, Currency: ResourceGold, Price: 7, Grants: ItemIronSword, Amount: 1},
		{ID: ItemEnderPearl, Currency: ResourceDiamond, Price: 4, Grants: ItemEnderPearl, Amount: 1},
	}
	out := make(map[string]ShopItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

// GeneratorSpec 资源点：每 Every 个 Tick 产出 Amount，库存上限 Cap
type GeneratorSpec struct {
	Kind     string `json:"kind"`
	Position Vec3   `json:"position"`
	Every    int    `json:"every"`
	Amount   int    `json:"amount"`
	Cap      int    `json:"cap"`
}

// DefaultGenerators 铁在中心，金在红蓝之间，钻石靠近黄队
func DefaultGenerators() []GeneratorSpec {
	return []GeneratorSpec{
		{Kind: ResourceIron, Position: Vec3{X: 0, Y: 1, Z: 0}, Every: 1, Amount: 1, Cap: 48},
		{Kind: ResourceGold, Position: Vec3{X: 0, Y: 1, Z: 10}, Every: 5, Amount: 1, Cap: 16},
		{Kind: ResourceDiamond, Position: Vec3{X: 9, Y: 1, Z: 0}, Every: 20, Amount: 1, Cap: 4},
	}
}

// bedPositions 各队床的位置，也是出生点
var bedPositions = map[Team]Vec3{
	TeamRed:    {X: 5, Y: 0.5, Z: 5},
	TeamBlue:   {X: -5, Y: 0.5, Z: 5},
	TeamGreen:  {X: -5, Y: 0.5, Z: -5},
	TeamYellow: {X: 5, Y: 0.5, Z: -5},
}
