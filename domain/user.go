package domain

import "time"

type ClanRole string

const (
	RoleMember   ClanRole = "member"
	RoleElder    ClanRole = "elder"
	RoleCoLeader ClanRole = "coLeader"
	RoleLeader   ClanRole = "leader"
)

// IsLeadership reports whether the role may manage strikes.
func (r ClanRole) IsLeadership() bool {
	return r == RoleCoLeader || r == RoleLeader
}

type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	DiscordID   *string `gorm:"column:discord_id;uniqueIndex" json:"discord_id,omitempty"`
	DiscordName string  `gorm:"column:discord_name" json:"discord_name,omitempty"`
	Tag         string  `gorm:"column:tag;uniqueIndex;not null" json:"tag"`
	Name        string  `gorm:"column:name;not null" json:"name"`
	Strikes     int     `gorm:"column:strikes;default:0" json:"strikes"`
	NeedsUpdate bool    `gorm:"column:needs_update;default:false" json:"-"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}

// ClanAffiliation links a user to a clan. A nil Role marks a former member.
type ClanAffiliation struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"column:user_id;uniqueIndex:idx_user_clan;not null"`
	User        User      `gorm:"foreignKey:UserID"`
	ClanID      uint      `gorm:"column:clan_id;uniqueIndex:idx_user_clan;not null"`
	Clan        Clan      `gorm:"foreignKey:ClanID"`
	Role        *ClanRole `gorm:"column:role"`
	FirstJoined time.Time `gorm:"column:first_joined"`
	UpdatedAt   time.Time
}

func (ClanAffiliation) TableName() string {
	return "clan_affiliations"
}

func (a ClanAffiliation) Active() bool {
	return a.Role != nil
}
