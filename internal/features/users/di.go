package users

var userRepository = &UserRepository{}
var secretKeyRepository = &SecretKeyRepository{}

var userService = &UserService{
	userRepository: userRepository,
	secretKeys:     secretKeyRepository,
}

var userController = &UserController{
	userService:   userService,
	loginThrottle: NewLoginThrottle(10, 5),
}

func GetUserService() *UserService {
	return userService
}

func GetUserController() *UserController {
	return userController
}
