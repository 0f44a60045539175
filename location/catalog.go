// location/catalog.go
package location

// The classic pack. 23 locations, 8 roles each.
var catalog = []Location{
	{Name: "Beach", Roles: []string{"Beach Goer", "Lifeguard", "Surfer", "Fisherman", "Beach Vendor", "Tourist", "Swimmer", "Beach Volleyball Player"}},
	{Name: "Casino", Roles: []string{"Gambler", "Dealer", "Security Guard", "Bartender", "Waitress", "Magician", "Bouncer", "Chef"}},
	{Name: "Circus", Roles: []string{"Clown", "Acrobat", "Ringmaster", "Juggler", "Magician", "Animal Trainer", "Ticket Seller", "Popcorn Vendor"}},
	{Name: "Corporate Party", Roles: []string{"Manager", "Accountant", "Secretary", "Intern", "CEO", "Security Guard", "Janitor", "Consultant"}},
	{Name: "Cruise Ship", Roles: []string{"Captain", "Passenger", "Bartender", "Chef", "Waiter", "Musician", "Deck Hand", "Tourist"}},
	{Name: "Day Spa", Roles: []string{"Customer", "Masseuse", "Aesthetician", "Manicurist", "Stylist", "Receptionist", "Yoga Instructor", "Guard"}},
	{Name: "Hospital", Roles: []string{"Doctor", "Nurse", "Patient", "Surgeon", "Anesthesiologist", "Intern", "Therapist", "Orderly"}},
	{Name: "Hotel", Roles: []string{"Doorman", "Security Guard", "Manager", "Housekeeper", "Waiter", "Concierge", "Bartender", "Chef"}},
	{Name: "Military Base", Roles: []string{"Commander", "Sergeant", "Medic", "Engineer", "Private", "Colonel", "Sniper", "Tank Driver"}},
	{Name: "Movie Studio", Roles: []string{"Director", "Actor", "Cameraman", "Costume Designer", "Producer", "Makeup Artist", "Stuntman", "Security Guard"}},
	{Name: "Ocean Liner", Roles: []string{"Captain", "Passenger", "Waiter", "Bartender", "Mechanic", "Musician", "Chef", "Deck Hand"}},
	{Name: "Passenger Train", Roles: []string{"Conductor", "Passenger", "Engineer", "Ticket Inspector", "Waiter", "Porter", "Chef", "Security Guard"}},
	{Name: "Pirate Ship", Roles: []string{"Captain", "Sailor", "Cook", "Cabin Boy", "Musician", "Cannoneer", "Prisoner", "Sailing Master"}},
	{Name: "Polar Station", Roles: []string{"Scientist", "Expedition Leader", "Meteorologist", "Doctor", "Chef", "Mechanic", "Biologist", "Geologist"}},
	{Name: "Police Station", Roles: []string{"Detective", "Officer", "Criminal", "Lawyer", "Journalist", "Criminalist", "Archivist", "Patrol Officer"}},
	{Name: "Restaurant", Roles: []string{"Waiter", "Chef", "Host", "Dishwasher", "Manager", "Food Critic", "Customer", "Bartender"}},
	{Name: "School", Roles: []string{"Teacher", "Student", "Principal", "Janitor", "Librarian", "Coach", "Cafeteria Worker", "Security Guard"}},
	{Name: "Service Station", Roles: []string{"Mechanic", "Manager", "Tire Specialist", "Biker", "Car Owner", "Car Wash Operator", "Electrician", "Auto Parts Dealer"}},
	{Name: "Space Station", Roles: []string{"Engineer", "Alien", "Pilot", "Commander", "Scientist", "Doctor", "Space Tourist", "Meteorologist"}},
	{Name: "Submarine", Roles: []string{"Captain", "Sailor", "Cook", "Mechanic", "Doctor", "Navigator", "Radioman", "Diver"}},
	{Name: "Supermarket", Roles: []string{"Customer", "Cashier", "Butcher", "Janitor", "Security Guard", "Food Sample Demonstrator", "Shelf Stocker", "Manager"}},
	{Name: "Theater", Roles: []string{"Actor", "Audience Member", "Usher", "Stagehand", "Coat Check Girl", "Playwright", "Director", "Crew Member"}},
	{Name: "University", Roles: []string{"Graduate Student", "Professor", "Dean", "Psychologist", "Janitor", "Student", "Dean", "Librarian"}},
}
