package server

// Event 一条待发送的出站事件；To 为空表示广播给房间全部成员
type Event struct {
	Type    string
	Payload any
	To      PlayerID
}

// Delta 校验通过、尚未写入的状态变化。
// apply 调用 Store 的变更方法并返回需要发送的事件。
type Delta interface {
	apply(s *Store) ([]Event, error)
}

type moveDelta struct {
	player PlayerID
	to     Vec3
}

func (d moveDelta) apply(s *Store) ([]Event, error) {
	ev, err := s.setPosition(d.player, d.to)
	if err != nil {
		return nil, err
	}
	return []Event{{Type: EvPlayerMove, Payload: ev}}, nil
}

type placeBlockDelta struct {
	player PlayerID
	at     Vec3
}

func (d placeBlockDelta) apply(s *Store) ([]Event, error) {
	ev, err := s.placeBlock(d.player, d.at)
	if err != nil {
		return nil, err
	}
	p, _ := s.Player(d.player)
	return []Event{
		{Type: EvUpdateBlock, Payload: ev},
		{Type: EvInventory, Payload: InventoryEvent{Inventory: p.Inventory.clone()}, To: d.player},
	}, nil
}

type breakBedDelta struct {
	player PlayerID
	team   Team
}

func (d breakBedDelta) apply(s *Store) ([]Event, error) {
	ev, err := s.destroyBed(d.team, d.player)
	if err != nil {
		return nil, err
	}
	return []Event{{Type: EvBedStatus, Payload: ev}}, nil
}

type purchaseDelta struct {
	player PlayerID
	item   ShopItem
}

func (d purchaseDelta) apply(s *Store) ([]Event, error) {
	ev, err := s.purchase(d.player, d.item)
	if err != nil {
		return nil, err
	}
	return []Event{{Type: EvInventory, Payload: ev, To: d.player}}, nil
}

type collectDelta struct {
	player PlayerID
	kind   string
}

func (d collectDelta) apply(s *Store) ([]Event, error) {
	ev, err := s.collect(d.player, d.kind)
	if err != nil {
		return nil, err
	}
	return []Event{{Type: EvInventory, Payload: ev, To: d.player}}, nil
}

// Validator 游戏规则的唯一执行点
type Validator struct {
	bounds       Bounds
	catalog      map[string]ShopItem
	pickupRadius float64
}

func NewValidator(cfg Config) *Validator {
	return &Validator{
		bounds:       cfg.Bounds,
		catalog:      cfg.Catalog,
		pickupRadius: cfg.PickupRadius,
	}
}

// Validate 根据当前状态判断意图是否合法；合法时返回 Delta，否则返回 *RejectError。
// 不修改任何状态。
func (v *Validator) Validate(s *Store, id PlayerID, in Intent) (Delta, error) {
	p, ok := s.Player(id)
	if !ok {
		return nil, reject(ReasonUnauthenticated, "player %s has not joined", id)
	}
	switch in := in.(type) {
	case MoveIntent:
		if !v.bounds.Contains(in.To) {
			return nil, reject(ReasonOutOfRange, "position %v outside world", in.To)
		}
		return moveDelta{player: id, to: in.To}, nil

	case PlaceBlockIntent:
		if in.Team != string(p.Team) {
			return nil, reject(ReasonNotYourTeam, "player is on %s, not %q", p.Team, in.Team)
		}
		if !v.bounds.Contains(in.Position) {
			return nil, reject(ReasonOutOfRange, "block %v outside world", in.Position)
		}
		if p.Inventory[ItemWool] < 1 {
			return nil, reject(ReasonInsufficientResources, "no %s left", ItemWool)
		}
		return placeBlockDelta{player: id, at: in.Position}, nil

	case BreakBedIntent:
		team, ok := ParseTeam(in.Team)
		if !ok {
			return nil, reject(ReasonOutOfRange, "unknown team %q", in.Team)
		}
		ts, _ := s.Team(team)
		// 先判断是否已破坏：任何人重复破坏都得到 TargetAlreadyDestroyed
		if ts.BedDestroyed {
			return nil, reject(ReasonTargetAlreadyDestroyed, "%s bed", team)
		}
		if team == p.Team {
			return nil, reject(ReasonNotYourTeam, "cannot break own bed")
		}
		return breakBedDelta{player: id, team: team}, nil

	case PurchaseIntent:
		item, ok := v.catalog[in.ItemID]
		if !ok {
			return nil, reject(ReasonOutOfRange, "unknown item %q", in.ItemID)
		}
		if p.Inventory[item.Currency] < item.Price {
			return nil, reject(ReasonInsufficientResources, "%s costs %d %s, have %d",
				item.ID, item.Price, item.Currency, p.Inventory[item.Currency])
		}
		return purchaseDelta{player: id, item: item}, nil

	case CollectIntent:
		g, ok := s.Generator(in.Generator)
		if !ok {
			return nil, reject(ReasonOutOfRange, "unknown generator %q", in.Generator)
		}
		if p.Pos.Dist(g.Position) > v.pickupRadius {
			return nil, reject(ReasonOutOfRange, "%s generator is %.1f away", g.Kind, p.Pos.Dist(g.Position))
		}
		if g.Stock == 0 {
			return nil, reject(ReasonInsufficientResources, "%s generator is empty", g.Kind)
		}
		return collectDelta{player: id, kind: g.Kind}, nil

	default:
		return nil, reject(ReasonUnauthenticated, "%s is not a game intent", in.Name())
	}
}
