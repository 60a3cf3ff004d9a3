package users

// Permission is one capability token. Each protected route declares exactly
// one required permission; a user's set is assigned explicitly at
// creation/edit.
type Permission string

const (
	PermAuthUse Permission = "sa-auth-use"

	PermAuthSignup Permission = "sa-auth-signup"
	PermAuthLogout Permission = "sa-auth-logout"

	PermAuthEditUser  Permission = "sa-auth-edit_user"
	PermAuthEditUsers Permission = "sa-auth-edit_users"

	PermAuthDeleteUser  Permission = "sa-auth-delete_user"
	PermAuthDeleteUsers Permission = "sa-auth-delete_users"

	PermAuthDestroyUser  Permission = "sa-auth-destroy_user"
	PermAuthDestroyUsers Permission = "sa-auth-destroy_users"

	PermAuthBlockUser  Permission = "sa-auth-block_user"
	PermAuthBlockUsers Permission = "sa-auth-block_users"

	PermAuthGetUser     Permission = "sa-auth-get_user"
	PermAuthGetUsers    Permission = "sa-auth-get_users"
	PermAuthGetAllUsers Permission = "sa-auth-get_all_users"

	PermFormationAdd             Permission = "sa-formation-add"
	PermFormationAddMany         Permission = "sa-formation-add_many"
	PermFormationAddPositions    Permission = "sa-formation-add_positions"
	PermFormationDelete          Permission = "sa-formation-delete"
	PermFormationDeleteMany      Permission = "sa-formation-delete_many"
	PermFormationDeletePositions Permission = "sa-formation-delete_positions"
	PermFormationEdit            Permission = "sa-formation-edit"
	PermFormationEditPosition    Permission = "sa-formation-edit_position"
	PermFormationGet             Permission = "sa-formation-get"
	PermFormationGetMany         Permission = "sa-formation-get_many"
	PermFormationGetAll          Permission = "sa-formation-get_all"

	PermSpecialtyAdd        Permission = "sa-specialty-add"
	PermSpecialtyAddMany    Permission = "sa-specialty-add_many"
	PermSpecialtyDelete     Permission = "sa-specialty-delete"
	PermSpecialtyDeleteMany Permission = "sa-specialty-delete_many"
	PermSpecialtyEdit       Permission = "sa-specialty-edit"
	PermSpecialtyGet        Permission = "sa-specialty-get"
	PermSpecialtyGetMany    Permission = "sa-specialty-get_many"
	PermSpecialtyGetAll     Permission = "sa-specialty-get_all"

	PermSystemAdd          Permission = "sa-system-add"
	PermSystemAddMany      Permission = "sa-system-add_many"
	PermSystemRefreshToken Permission = "sa-system-refresh_token"
	PermSystemDelete       Permission = "sa-system-delete"
	PermSystemDeleteMany   Permission = "sa-system-delete_many"
	PermSystemEdit         Permission = "sa-system-edit"
	PermSystemGet          Permission = "sa-system-get"
	PermSystemGetMany      Permission = "sa-system-get_many"
	PermSystemGetAll       Permission = "sa-system-get_all"
)

var allPermissions = map[Permission]struct{}{
	PermAuthUse:                  {},
	PermAuthSignup:               {},
	PermAuthLogout:               {},
	PermAuthEditUser:             {},
	PermAuthEditUsers:            {},
	PermAuthDeleteUser:           {},
	PermAuthDeleteUsers:          {},
	PermAuthDestroyUser:          {},
	PermAuthDestroyUsers:         {},
	PermAuthBlockUser:            {},
	PermAuthBlockUsers:           {},
	PermAuthGetUser:              {},
	PermAuthGetUsers:             {},
	PermAuthGetAllUsers:          {},
	PermFormationAdd:             {},
	PermFormationAddMany:         {},
	PermFormationAddPositions:    {},
	PermFormationDelete:          {},
	PermFormationDeleteMany:      {},
	PermFormationDeletePositions: {},
	PermFormationEdit:            {},
	PermFormationEditPosition:    {},
	PermFormationGet:             {},
	PermFormationGetMany:         {},
	PermFormationGetAll:          {},
	PermSpecialtyAdd:             {},
	PermSpecialtyAddMany:         {},
	PermSpecialtyDelete:          {},
	PermSpecialtyDeleteMany:      {},
	PermSpecialtyEdit:            {},
	PermSpecialtyGet:             {},
	PermSpecialtyGetMany:         {},
	PermSpecialtyGetAll:          {},
	PermSystemAdd:                {},
	PermSystemAddMany:            {},
	PermSystemRefreshToken:       {},
	PermSystemDelete:             {},
	PermSystemDeleteMany:         {},
	PermSystemEdit:               {},
	PermSystemGet:                {},
	PermSystemGetMany:            {},
	PermSystemGetAll:             {},
}

func (p Permission) Valid() bool {
	_, ok := allPermissions[p]
	return ok
}
